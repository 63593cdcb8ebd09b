package store

import (
	"context"
	"sync"
)

// StaticWatchlist keeps symbols in memory, used when SQLite is not configured.
type StaticWatchlist struct {
	mu      sync.Mutex
	symbols []string
}

func NewStaticWatchlist(seed []string) *StaticWatchlist {
	w := &StaticWatchlist{}
	for _, s := range seed {
		_, _ = w.Add(context.Background(), s)
	}
	return w
}

func (w *StaticWatchlist) List(_ context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.symbols...), nil
}

func (w *StaticWatchlist) Add(_ context.Context, symbol string) (bool, error) {
	s, err := normalize(symbol)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, have := range w.symbols {
		if have == s {
			return false, nil
		}
	}
	w.symbols = append(w.symbols, s)
	return true, nil
}

func (w *StaticWatchlist) Remove(_ context.Context, symbol string) (bool, error) {
	s, err := normalize(symbol)
	if err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, have := range w.symbols {
		if have == s {
			w.symbols = append(w.symbols[:i], w.symbols[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (w *StaticWatchlist) Close() error { return nil }
