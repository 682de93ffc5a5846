package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Measurement kinds.
const (
	MeasurementPrice   = "price"
	MeasurementArticle = "article"
)

// ErrInvalidPoint is returned for points that must never reach a sink.
var ErrInvalidPoint = errors.New("invalid point")

// Point is one normalized, timestamped observation.
type Point struct {
	Measurement string            // Record kind ("price", "article")
	Tags        map[string]string // Low-cardinality dimensions
	Fields      map[string]any    // Observed values: float64 or string
	Timestamp   time.Time         // Fetch/receive instant, shared by the whole batch
}

// Batch is the ordered output of one fetch/receive cycle of one source.
type Batch []Point

// Validate checks the fixed point shape.
func (p Point) Validate() error {
	if p.Measurement == "" {
		return fmt.Errorf("%w: empty measurement", ErrInvalidPoint)
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("%w: %s has no fields", ErrInvalidPoint, p.Measurement)
	}
	for k, v := range p.Fields {
		switch val := v.(type) {
		case float64:
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return fmt.Errorf("%w: field %q is not finite", ErrInvalidPoint, k)
			}
		case string:
		default:
			return fmt.Errorf("%w: field %q has unsupported type %T", ErrInvalidPoint, k, v)
		}
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("%w: %s has no timestamp", ErrInvalidPoint, p.Measurement)
	}
	return nil
}

// Validate checks every point. The first failure rejects the whole batch.
func (b Batch) Validate() error {
	for i, p := range b {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

// NewPrice builds a price point.
func NewPrice(symbol, exchange, assetType string, fields map[string]any, ts time.Time) Point {
	return Point{
		Measurement: MeasurementPrice,
		Tags: map[string]string{
			"symbol":     symbol,
			"exchange":   exchange,
			"asset_type": assetType,
		},
		Fields:    fields,
		Timestamp: ts,
	}
}

// Article is a news item before it becomes a point.
type Article struct {
	Title        string
	URL          string
	Source       string // Publisher name, "cryptopanic" for that feed
	RelatedAsset string
	Published    string // Provider timestamp, kept verbatim
}

// Point converts the article to an "article" point. Sentiment tags and
// score are added later by the enriching sink.
func (a Article) Point(ts time.Time) Point {
	return Point{
		Measurement: MeasurementArticle,
		Tags: map[string]string{
			"source":        a.Source,
			"related_asset": a.RelatedAsset,
		},
		Fields: map[string]any{
			"title":     a.Title,
			"url":       a.URL,
			"published": a.Published,
		},
		Timestamp: ts,
	}
}
