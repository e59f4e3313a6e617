package dashboard

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZapTelemetry logs telemetry events at debug level.
type ZapTelemetry struct {
	logger *zap.Logger
}

// NewZapTelemetry adapts logger to Telemetry.
func NewZapTelemetry(logger *zap.Logger) *ZapTelemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapTelemetry{logger: logger.Named("telemetry")}
}

// Record implements Telemetry.
func (t *ZapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys)+1)
	fields = append(fields, zap.String("event", event))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, payload[k]))
	}
	t.logger.Debug("dashboard telemetry", fields...)
}
