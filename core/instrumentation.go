package interview

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-interview/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	answersSubmitted, _ = meter.Int64Counter("interview.answers.submitted",
		metric.WithDescription("Answers accepted by the remote session"))
	remoteFailures, _ = meter.Int64Counter("interview.remote.failures",
		metric.WithDescription("Failed remote session calls"))
	captureRestarts, _ = meter.Int64Counter("interview.capture.restarts",
		metric.WithDescription("Recognition streams reopened after ending on their own"))
)
