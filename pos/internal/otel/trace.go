package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/inframex/pos/internal/constants"
)

var Tracer = otel.Tracer(constants.AppPos)
