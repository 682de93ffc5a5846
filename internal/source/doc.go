// Package source holds what the provider packages share: URL
// deduplication for news sources and keyword-based asset detection for
// article titles.
//
// Each provider lives in its own subpackage and exposes a Fetch (polling)
// or Dial/Parse pair (streaming) that the runner package drives.
package source
