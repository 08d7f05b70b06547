package recovery

import "errors"

// ErrNeedsRecovery is returned by ApplyUpdate when the manager is not
// in StateRecovered: the caller must wait for (or request) a snapshot.
var ErrNeedsRecovery = errors.New("recovery: needs recovery")
