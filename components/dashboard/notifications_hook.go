package dashboard

import (
	"context"

	"go.uber.org/zap"
)

// NotificationsClient publishes store events to an external notification channel.
type NotificationsClient interface {
	PublishDashboardEvent(ctx context.Context, channel string, event StoreEvent) error
}

// NotificationsHook forwards selected store events to an external notifications client.
// An empty Reasons list forwards everything.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
	Reasons []string
	Logger  *zap.Logger
}

// Listener returns the hook as a store Listener.
func (h *NotificationsHook) Listener() Listener {
	return func(ctx context.Context, event StoreEvent) {
		if err := h.Forward(ctx, event); err != nil && h.Logger != nil {
			h.Logger.Warn("dashboard: notifications hook failed", zap.String("reason", event.Reason), zap.Error(err))
		}
	}
}

// Forward publishes event when it matches the configured reasons.
func (h *NotificationsHook) Forward(ctx context.Context, event StoreEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	if len(h.Reasons) > 0 && !containsID(h.Reasons, event.Reason) {
		return nil
	}
	channel := h.Channel
	if channel == "" {
		channel = "dashboard"
	}
	return h.Client.PublishDashboardEvent(ctx, channel, event)
}
