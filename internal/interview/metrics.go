package interview

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meters for the interview pipeline. Without a configured SDK these are
// no-op instruments.
type meters struct {
	turns       metric.Int64Counter
	extractions metric.Int64Counter
	synthChars  metric.Int64Counter
}

func newMeters() *meters {
	meter := otel.Meter("github.com/Alex-Pennington/MARS-History-Project/internal/interview")

	turns, _ := meter.Int64Counter("interview.turns",
		metric.WithDescription("Interview turns processed"))
	extractions, _ := meter.Int64Counter("interview.extractions",
		metric.WithDescription("Knowledge extraction passes run"))
	synthChars, _ := meter.Int64Counter("interview.synthesis.chars",
		metric.WithDescription("Characters sent to speech synthesis"))

	return &meters{turns: turns, extractions: extractions, synthChars: synthChars}
}
