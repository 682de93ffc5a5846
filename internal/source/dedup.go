package source

import (
	"github.com/rickgao/feeder/internal/dedup"
	"github.com/rickgao/feeder/internal/model"
)

// RemovedTitle is the placeholder NewsAPI returns for retracted articles.
const RemovedTitle = "[Removed]"

// Deduper filters articles whose URL was already emitted by any source
// sharing the same set.
type Deduper struct {
	set         *dedup.Set
	onDuplicate func(source string)
}

// NewDeduper wraps set. onDuplicate is called once per suppressed article
// and may be nil.
func NewDeduper(set *dedup.Set, onDuplicate func(source string)) *Deduper {
	if onDuplicate == nil {
		onDuplicate = func(string) {}
	}
	return &Deduper{set: set, onDuplicate: onDuplicate}
}

// Admit reports whether a should be emitted. The URL is recorded before the
// title is checked, so an item with an empty title is still remembered.
// Items without a URL cannot be deduplicated and are never admitted.
func (d *Deduper) Admit(source string, a model.Article) bool {
	if a.URL == "" {
		return false
	}
	if !d.set.InsertIfAbsent(dedup.KeyOf(a.URL)) {
		d.onDuplicate(source)
		return false
	}
	return a.Title != "" && a.Title != RemovedTitle
}
