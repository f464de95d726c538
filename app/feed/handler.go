package feed

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnreadable marks a stream the tokenizer could not make sense of at
// all. Everything milder (missing fields, bad URLs, bad dates) is
// absorbed into partial items and never surfaces as an error.
var ErrUnreadable = errors.New("feed unreadable")

// Handler is the contract every parser implementation exposes to the
// check pipeline: streaming ingestion of raw bytes, then a single "best
// current item" accessor.
type Handler interface {
	Parse(r io.Reader) error
	CurrentItem() *Item
}

// Handler bindings referenced by site configurations.
const (
	BindingDeal = "deal"
	BindingRSS  = "rss"
)

// NewHandler returns a fresh handler for the given binding. Handlers
// hold per-parse state, so one instance serves exactly one parse pass.
func NewHandler(binding string) (Handler, error) {
	switch binding {
	case BindingDeal, "":
		return NewDealHandler(), nil
	case BindingRSS:
		return NewRSSHandler(), nil
	default:
		return nil, fmt.Errorf("unknown parser binding: %q", binding)
	}
}
