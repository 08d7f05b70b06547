// Package nbbo folds per-book best-bid/best-ask summaries into a
// single national best bid/offer.
package nbbo

// BookSummary is one venue's best-bid/best-ask snapshot, taken by the
// caller from a book.Book on its own pipeline goroutine.
type BookSummary struct {
	Symbol      string
	BidPrice    uint64
	BidQuantity uint32
	HasBid      bool
	AskPrice    uint64
	AskQuantity uint32
	HasAsk      bool
}

// NBBO is the best bid and offer across a set of BookSummary values.
type NBBO struct {
	BidPrice    uint64
	BidQuantity uint32
	BidSymbol   string
	AskPrice    uint64
	AskQuantity uint32
	AskSymbol   string
}

// Best folds summaries into a single NBBO: the highest bid and the
// lowest ask across all venues that have one. ok is false if no
// summary carries a bid and an ask between them.
func Best(summaries []BookSummary) (NBBO, bool) {
	var out NBBO
	var hasBid, hasAsk bool

	for _, s := range summaries {
		if s.HasBid && (!hasBid || s.BidPrice > out.BidPrice) {
			out.BidPrice = s.BidPrice
			out.BidQuantity = s.BidQuantity
			out.BidSymbol = s.Symbol
			hasBid = true
		}
		if s.HasAsk && (!hasAsk || s.AskPrice < out.AskPrice) {
			out.AskPrice = s.AskPrice
			out.AskQuantity = s.AskQuantity
			out.AskSymbol = s.Symbol
			hasAsk = true
		}
	}

	return out, hasBid && hasAsk
}
