package gesture

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/maprotate/internal/gesture"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
