package book

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// ladder is an ordered price -> aggregate-quantity map. Both bid and
// ask sides use the same ascending uint64 comparator; the side only
// changes which end of the tree is "best" (Max for bids, Min for
// asks).
type ladder struct {
	levels *treemap.Map
}

func newLadder() *ladder {
	return &ladder{levels: treemap.NewWith(utils.UInt64Comparator)}
}

func (l *ladder) add(price uint64, qty uint32) {
	cur := l.qtyAt(price)
	l.levels.Put(price, cur+qty)
}

// adjust changes the aggregate at price by delta (which may be
// negative) and removes the level entirely if the result reaches
// zero. Callers must not drive the aggregate below zero.
func (l *ladder) adjust(price uint64, delta int64) {
	cur := int64(l.qtyAt(price))
	next := cur + delta
	if next <= 0 {
		l.levels.Remove(price)
		return
	}
	l.levels.Put(price, uint32(next))
}

func (l *ladder) qtyAt(price uint64) uint32 {
	v, found := l.levels.Get(price)
	if !found {
		return 0
	}
	return v.(uint32)
}

func (l *ladder) len() int {
	return l.levels.Size()
}

func (l *ladder) clear() {
	l.levels.Clear()
}

// best returns the ladder's priority-best level: the max key for bids,
// the min key for asks, chosen via ascending.
func (l *ladder) best(ascending bool) (price uint64, qty uint32, ok bool) {
	if l.levels.Empty() {
		return 0, 0, false
	}
	var k, v interface{}
	if ascending {
		k, v = l.levels.Min()
	} else {
		k, v = l.levels.Max()
	}
	return k.(uint64), v.(uint32), true
}

// depth returns up to n levels in priority order: ascending for asks,
// descending for bids.
func (l *ladder) depth(n int, ascending bool) []Level {
	out := make([]Level, 0, n)
	it := l.levels.Iterator()
	if ascending {
		for it.Next() && len(out) < n {
			out = append(out, Level{Price: it.Key().(uint64), Quantity: it.Value().(uint32)})
		}
		return out
	}
	for it.End(); it.Prev() && len(out) < n; {
		out = append(out, Level{Price: it.Key().(uint64), Quantity: it.Value().(uint32)})
	}
	return out
}

// Level is a single (price, aggregate quantity) entry in a book side.
type Level struct {
	Price    uint64
	Quantity uint32
}
