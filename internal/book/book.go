// Package book implements a passive, single-threaded limit order book.
// It never originates trades; it only reflects venue-reported order
// and snapshot messages.
package book

import (
	"github.com/quantrail/mdcore/internal/decoder"
	"github.com/quantrail/mdcore/internal/protocol"
)

// Observer receives book-level events useful to an external stats
// collector. Both methods are optional hooks — a nil Observer is valid
// and Book skips the calls. Defined here, not in internal/stats, so
// book has no dependency on how events are aggregated.
type Observer interface {
	OnMessage(kind protocol.MessageType)
	OnCrossedBook()
}

type order struct {
	side     protocol.Side
	price    uint64
	quantity uint32
}

// Book is a passive limit order book: two price-ordered ladders (bid
// descending, ask ascending) plus an order_id -> order index. Not safe
// for concurrent use.
type Book struct {
	orders   map[uint64]order
	bids     *ladder
	asks     *ladder
	observer Observer
}

// New returns an empty Book. obs may be nil.
func New(obs Observer) *Book {
	return &Book{
		orders:   make(map[uint64]order),
		bids:     newLadder(),
		asks:     newLadder(),
		observer: obs,
	}
}

// Apply dispatches view to the appropriate handler by message kind.
func (b *Book) Apply(view decoder.View) error {
	if b.observer != nil {
		b.observer.OnMessage(view.MessageType())
	}

	var err error
	switch view.MessageType() {
	case protocol.MessageTypeAddOrder:
		err = b.applyAddOrder(view.AddOrder())
	case protocol.MessageTypeModifyOrder:
		err = b.applyModifyOrder(view.ModifyOrder())
	case protocol.MessageTypeDeleteOrder:
		err = b.applyDeleteOrder(view.DeleteOrder())
	case protocol.MessageTypeTrade:
		// Informational only; no book mutation.
	case protocol.MessageTypeSnapshot:
		b.ApplySnapshot(view.Snapshot())
	}
	if err != nil {
		return err
	}

	b.checkCrossed()
	return nil
}

func (b *Book) applyAddOrder(v decoder.AddOrderView) error {
	id := v.OrderID()
	if _, exists := b.orders[id]; exists {
		return &Error{Kind: ErrorKindDuplicateOrder, OrderID: id}
	}
	qty := v.Quantity()
	if qty == 0 {
		return &Error{Kind: ErrorKindInvalidField, OrderID: id}
	}
	side := v.Side()
	price := v.Price()

	b.orders[id] = order{side: side, price: price, quantity: qty}
	b.ladderFor(side).add(price, qty)
	return nil
}

func (b *Book) applyModifyOrder(v decoder.ModifyOrderView) error {
	id := v.OrderID()
	o, exists := b.orders[id]
	if !exists {
		return &Error{Kind: ErrorKindUnknownOrder, OrderID: id}
	}

	newQty := v.NewQuantity()
	delta := int64(newQty) - int64(o.quantity)
	if delta == 0 {
		return nil
	}

	b.ladderFor(o.side).adjust(o.price, delta)
	if newQty == 0 {
		delete(b.orders, id)
		return nil
	}
	o.quantity = newQty
	b.orders[id] = o
	return nil
}

func (b *Book) applyDeleteOrder(v decoder.DeleteOrderView) error {
	id := v.OrderID()
	o, exists := b.orders[id]
	if !exists {
		return &Error{Kind: ErrorKindUnknownOrder, OrderID: id}
	}
	b.ladderFor(o.side).adjust(o.price, -int64(o.quantity))
	delete(b.orders, id)
	return nil
}

// ApplySnapshot atomically replaces the book: all per-order state and
// both ladders are cleared, then the snapshot's levels are installed as
// aggregate levels with no associated order records. Any order_id
// introduced before the snapshot becomes unknown to future
// Modify/Delete calls, which is expected.
func (b *Book) ApplySnapshot(v decoder.SnapshotView) {
	for k := range b.orders {
		delete(b.orders, k)
	}
	b.bids.clear()
	b.asks.clear()

	for i := uint32(0); i < v.NumBids(); i++ {
		price, qty := v.BidLevel(i)
		b.bids.add(price, qty)
	}
	for i := uint32(0); i < v.NumAsks(); i++ {
		price, qty := v.AskLevel(i)
		b.asks.add(price, qty)
	}

	b.checkCrossed()
}

// Clear empties the book's order and level state without installing
// any replacement levels.
func (b *Book) Clear() {
	for k := range b.orders {
		delete(b.orders, k)
	}
	b.bids.clear()
	b.asks.clear()
}

// BestBid returns the highest bid level, if any.
func (b *Book) BestBid() (price uint64, qty uint32, ok bool) {
	return b.bids.best(false)
}

// BestAsk returns the lowest ask level, if any.
func (b *Book) BestAsk() (price uint64, qty uint32, ok bool) {
	return b.asks.best(true)
}

// Depth returns up to n levels of side, in book-priority order
// (descending for bids, ascending for asks).
func (b *Book) Depth(side protocol.Side, n int) []Level {
	if side == protocol.SideBid {
		return b.bids.depth(n, false)
	}
	return b.asks.depth(n, true)
}

// LenOrders returns the number of live per-order records.
func (b *Book) LenOrders() int {
	return len(b.orders)
}

// LenLevels returns the number of distinct price levels on side.
func (b *Book) LenLevels(side protocol.Side) int {
	if side == protocol.SideBid {
		return b.bids.len()
	}
	return b.asks.len()
}

func (b *Book) ladderFor(side protocol.Side) *ladder {
	if side == protocol.SideBid {
		return b.bids
	}
	return b.asks
}

// checkCrossed reports, but never corrects, a crossed book
// (best_bid >= best_ask).
func (b *Book) checkCrossed() {
	if b.observer == nil {
		return
	}
	bidPrice, _, hasBid := b.BestBid()
	askPrice, _, hasAsk := b.BestAsk()
	if hasBid && hasAsk && bidPrice >= askPrice {
		b.observer.OnCrossedBook()
	}
}
