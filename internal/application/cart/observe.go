package cart

import (
	"context"
	"time"

	"github.com/freshmart/cart-service/internal/observability"
	"github.com/freshmart/cart-service/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// observe opens a use-case span and returns a finish callback that records
// span status, RED metrics and a use_case_done log line. Every public
// operation wraps itself in one of these.
func (s *Service) observe(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	spanAttrs := append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := s.tracer.Start(ctx, spanPrefix+useCase, spanAttrs...)
	start := time.Now()

	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCase))

	return ctx, func(err error) {
		lat := time.Since(start).Seconds()
		outcome := "success"

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "OK")
			}
			span.End()
		}

		if err != nil {
			outcome = "error"
		}

		if s.reqCounter != nil {
			s.reqCounter.Add(1,
				observability.L("use_case", useCase),
				observability.L("outcome", outcome),
			)
		}
		if s.durHistogram != nil {
			s.durHistogram.Observe(lat,
				observability.L("use_case", useCase),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}
}
