// Package notifier provides implementations of notify.ProductUpdatedNotifier.
//
// LogNotifier only writes the event to the log and is the default.
// RecordingNotifier keeps events in memory for tests and diagnostics.
// NoOpNotifier drops events. WebhookNotifier POSTs the event as JSON to an
// HTTP endpoint.
//
// None of them retries: a failed delivery is returned to the caller once.
package notifier

import (
	"context"
	"log/slog"

	"github.com/mrops-br/product-upsert-api/internal/app/dto"
	"github.com/mrops-br/product-upsert-api/internal/app/notify"
)

var (
	_ notify.ProductUpdatedNotifier = (*LogNotifier)(nil)
	_ notify.ProductUpdatedNotifier = (*NoOpNotifier)(nil)
	_ notify.ProductUpdatedNotifier = (*RecordingNotifier)(nil)
	_ notify.ProductUpdatedNotifier = (*WebhookNotifier)(nil)
)

// LogNotifier records each product-updated event in the log. It carries no
// durability or delivery guarantee.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyProductUpdated(ctx context.Context, product dto.ProductUpdatedDto) error {
	n.logger.InfoContext(ctx, "Product updated event",
		slog.String("id", product.ID),
		slog.String("name", product.Name),
		slog.Int64("pricePence", product.PricePence),
		slog.String("description", product.Description),
		slog.String("updatedAt", product.UpdatedAt),
	)
	return nil
}

// NoOpNotifier is used when notifications are disabled.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) NotifyProductUpdated(ctx context.Context, product dto.ProductUpdatedDto) error {
	return nil
}
