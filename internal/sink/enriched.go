package sink

import (
	"context"
	"maps"

	"github.com/rickgao/feeder/internal/model"
	"github.com/rickgao/feeder/internal/sentiment"
)

// Enriched adds a sentiment score and label to article points before
// delegating to next. When disabled every article is scored 0, neutral.
type Enriched struct {
	next    Sink
	enabled bool
}

// NewEnriched wraps next.
func NewEnriched(next Sink, enabled bool) *Enriched {
	return &Enriched{next: next, enabled: enabled}
}

// Write scores each article title. The caller's batch is not modified.
func (s *Enriched) Write(ctx context.Context, batch model.Batch, source string) error {
	out := make(model.Batch, len(batch))
	for i, p := range batch {
		if p.Measurement == model.MeasurementArticle {
			p = s.enrich(p)
		}
		out[i] = p
	}
	return s.next.Write(ctx, out, source)
}

func (s *Enriched) enrich(p model.Point) model.Point {
	score, label := 0.0, sentiment.Neutral
	if s.enabled {
		if title, ok := p.Fields["title"].(string); ok {
			score, label = sentiment.Score(title)
		}
	}

	tags := maps.Clone(p.Tags)
	if tags == nil {
		tags = make(map[string]string, 1)
	}
	tags["sentiment_label"] = label

	fields := maps.Clone(p.Fields)
	if fields == nil {
		fields = make(map[string]any, 1)
	}
	fields["score"] = score

	p.Tags = tags
	p.Fields = fields
	return p
}

// Close closes the wrapped sink.
func (s *Enriched) Close() {
	s.next.Close()
}
