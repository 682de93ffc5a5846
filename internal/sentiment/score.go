package sentiment

import (
	"math"
	"sync"

	"github.com/jonreiter/govader"
)

// Labels.
const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

// Threshold is the compound magnitude at which a text stops being neutral.
const Threshold = 0.05

// The analyzer loads its lexicon on construction and is read-only afterwards.
var analyzer = sync.OnceValue(govader.NewSentimentIntensityAnalyzer)

// Score returns the compound score of text and its label.
func Score(text string) (float64, string) {
	c := Compound(text)
	return c, Label(c)
}

// Label maps a compound score to positive, negative or neutral.
func Label(compound float64) string {
	switch {
	case compound >= Threshold:
		return Positive
	case compound <= -Threshold:
		return Negative
	default:
		return Neutral
	}
}

// Compound returns the VADER compound score in [-1, 1], rounded to 4 decimals.
func Compound(text string) float64 {
	if text == "" {
		return 0
	}
	return round4(analyzer().PolarityScores(text).Compound)
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
