package query

import (
	"fmt"

	"nixdex/internal/store"
)

// Index is the subset of the store the engine reads from.
type Index interface {
	Exact(attribute string) (*store.Package, error)
	Ranked(query string, visit func(store.Package) bool) error
}

// Options control a fuzzy query.
type Options struct {
	// Limit caps the result count after filtering. Zero or less yields nothing.
	Limit int
	// FilterPresent drops results whose store path is not on disk.
	FilterPresent bool
}

// Engine answers exact and fuzzy lookups against a built index.
type Engine struct {
	index    Index
	presence Presence
}

func New(idx Index, presence Presence) *Engine {
	return &Engine{index: idx, presence: presence}
}

// Exact returns the package with the given attribute, or nil if there is
// no installable package by that key.
func (e *Engine) Exact(attribute string) (*store.Package, error) {
	p, err := e.index.Exact(attribute)
	if err != nil {
		return nil, fmt.Errorf("exact lookup: %w", err)
	}
	return p, nil
}

// Fuzzy returns up to opts.Limit packages ranked by name similarity to
// query, each annotated with its score and local presence.
func (e *Engine) Fuzzy(query string, opts Options) ([]store.Package, error) {
	results := []store.Package{}
	if opts.Limit <= 0 {
		return results, nil
	}

	err := e.index.Ranked(query, func(p store.Package) bool {
		if !p.Installable() {
			return true
		}
		present := e.presence.Exists(*p.StorePath)
		if opts.FilterPresent && !present {
			return true
		}
		p.Present = &present
		results = append(results, p)
		return len(results) < opts.Limit
	})
	if err != nil {
		return nil, fmt.Errorf("fuzzy search %q: %w", query, err)
	}
	return results, nil
}
