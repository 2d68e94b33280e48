package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrops-br/product-upsert-api/internal/app/dto"
	"github.com/mrops-br/product-upsert-api/internal/app/notify"
	"github.com/mrops-br/product-upsert-api/internal/domain"
)

// UpsertProductDeps carries the collaborators of a single upsert call
type UpsertProductDeps struct {
	ProductRepo domain.ProductRepository
	Now         func() time.Time
	Notifier    notify.ProductUpdatedNotifier
	Logger      *slog.Logger
}

// UpsertProductCommand is the untrusted input of the upsert use-case.
// The timestamp is never taken from the caller.
type UpsertProductCommand struct {
	ID          string
	Name        string
	PricePence  int64
	Description string
}

// UpsertProductResult is either a success carrying the saved product or a
// failure carrying a message. There is no partial-success state.
type UpsertProductResult struct {
	Success bool
	Data    *domain.Product
	Error   string
}

func Succeeded(p domain.Product) UpsertProductResult {
	return UpsertProductResult{Success: true, Data: &p}
}

func Failed(msg string) UpsertProductResult {
	return UpsertProductResult{Success: false, Error: msg}
}

// Product returns the saved product and whether the result is a success.
func (r UpsertProductResult) Product() (domain.Product, bool) {
	if !r.Success || r.Data == nil {
		return domain.Product{}, false
	}
	return *r.Data, true
}

// Err returns the failure as an error, or nil on success.
func (r UpsertProductResult) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}

// UpsertProduct creates a product or replaces an existing one with the same
// ID, then notifies about the change.
//
// Failures never escape: they come back as a failed result carrying the
// error message. A notification failure is reported after the save has
// already happened and the save is not undone.
func UpsertProduct(ctx context.Context, deps UpsertProductDeps, cmd UpsertProductCommand) (result UpsertProductResult) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed(fmt.Sprint(r))
		}
	}()

	product, err := domain.NewProduct(domain.ProductParams{
		ID:          cmd.ID,
		Name:        cmd.Name,
		PricePence:  cmd.PricePence,
		Description: cmd.Description,
		UpdatedAt:   deps.Now(),
	})
	if err != nil {
		return Failed(err.Error())
	}

	deps.Logger.InfoContext(ctx, fmt.Sprintf("Upserting product with id: %s at %s",
		product.ID(), dto.FormatTimestamp(product.UpdatedAt())))

	saved, err := deps.ProductRepo.Save(ctx, product)
	if err != nil {
		return Failed(err.Error())
	}

	deps.Logger.InfoContext(ctx, "Product upserted with id: "+saved.ID())
	if details, err := json.Marshal(saved); err == nil {
		deps.Logger.DebugContext(ctx, "Upserted product details: "+string(details))
	}
	deps.Logger.InfoContext(ctx, "Notifying product updated for id: "+saved.ID())

	if err := deps.Notifier.NotifyProductUpdated(ctx, dto.ToProductUpdatedDto(saved)); err != nil {
		return Failed(err.Error())
	}

	deps.Logger.InfoContext(ctx, "Product updated notification sent for id: "+saved.ID())

	return Succeeded(saved)
}
