package store

import (
	"context"
	"fmt"

	"SMARespect/internal/model"
)

// Watchlist persists the set of symbols analysed by scheduled and on-demand
// reports. Symbols keep insertion order. Analysis results are never stored.
type Watchlist interface {
	List(ctx context.Context) ([]string, error)
	// Add reports whether the symbol was newly added.
	Add(ctx context.Context, symbol string) (bool, error)
	// Remove reports whether the symbol was present.
	Remove(ctx context.Context, symbol string) (bool, error)
	Close() error
}

func normalize(symbol string) (string, error) {
	s := model.NormalizeSymbol(symbol)
	if s == "" {
		return "", fmt.Errorf("%w: empty symbol", model.ErrInvalidInput)
	}
	return s, nil
}
