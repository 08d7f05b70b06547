// Package gapdetector tracks missing sequence ranges in an incoming
// stream of sequence numbers.
package gapdetector

import "sort"

// Range is a half-open interval [Lo, Hi) of missing sequence numbers.
type Range struct {
	Lo, Hi uint32
}

func (r Range) len() uint64 {
	return uint64(r.Hi) - uint64(r.Lo)
}

// Detector tracks the highest sequence number observed and the set of
// sequence ranges known to be missing. It is oblivious to wall-clock
// time: late arrivals are reconciled by sequence alone. The zero value
// is ready to use.
//
// Not safe for concurrent use — it runs single
// threaded on one pipeline's hot path.
type Detector struct {
	hasLast bool
	last    uint32
	ranges  []Range // sorted by Lo, non-overlapping
}

// Process advances the detector by one observed sequence number,
// recording or reconciling a gap.
func (d *Detector) Process(seq uint32) {
	if !d.hasLast {
		d.hasLast = true
		d.last = seq
		return
	}

	if seq == d.last+1 {
		d.last = seq
		return
	}

	if seq > d.last+1 {
		d.ranges = append(d.ranges, Range{Lo: d.last + 1, Hi: seq})
		d.last = seq
		return
	}

	// seq <= d.last: late or duplicate arrival. Remove seq from any
	// range that contains it.
	d.reconcile(seq)
}

// reconcile removes seq from whichever tracked range contains it,
// splitting the range as needed and discarding empty halves.
func (d *Detector) reconcile(seq uint32) {
	for i, r := range d.ranges {
		if seq < r.Lo || seq >= r.Hi {
			continue
		}

		left := Range{Lo: r.Lo, Hi: seq}
		right := Range{Lo: seq + 1, Hi: r.Hi}

		replacement := make([]Range, 0, 2)
		if left.len() > 0 {
			replacement = append(replacement, left)
		}
		if right.len() > 0 {
			replacement = append(replacement, right)
		}

		d.ranges = append(d.ranges[:i], append(replacement, d.ranges[i+1:]...)...)
		return
	}
}

// Gaps returns the currently-outstanding missing ranges, ordered by Lo.
func (d *Detector) Gaps() []Range {
	out := make([]Range, len(d.ranges))
	copy(out, d.ranges)
	sort.Slice(out, func(i, j int) bool { return out[i].Lo < out[j].Lo })
	return out
}

// TotalGaps returns the sum of (Hi - Lo) across all outstanding ranges.
func (d *Detector) TotalGaps() uint64 {
	var total uint64
	for _, r := range d.ranges {
		total += r.len()
	}
	return total
}

// Reset clears all tracked state, as if the detector had just been
// constructed.
func (d *Detector) Reset() {
	d.hasLast = false
	d.last = 0
	d.ranges = nil
}
