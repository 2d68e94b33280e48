// Package notify declares the outbound port used to announce product changes.
//
// Implementations live under internal/infrastructure/notifier. The use-case
// calls NotifyProductUpdated once per successful save and never retries, so
// delivery is at most once from the caller's point of view.
package notify

import (
	"context"

	"github.com/mrops-br/product-upsert-api/internal/app/dto"
)

// ProductUpdatedNotifier announces that a product was saved.
type ProductUpdatedNotifier interface {
	NotifyProductUpdated(ctx context.Context, product dto.ProductUpdatedDto) error
}
