package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mrops-br/product-upsert-api/internal/app/dto"
	"github.com/mrops-br/product-upsert-api/internal/app/service"
	"github.com/mrops-br/product-upsert-api/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *mockProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyProductUpdated(ctx context.Context, product dto.ProductUpdatedDto) error {
	return m.Called(ctx, product).Error(0)
}

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newDeps(repo *mockProductRepository, notifier *mockNotifier, logs *bytes.Buffer) service.UpsertProductDeps {
	return service.UpsertProductDeps{
		ProductRepo: repo,
		Now:         func() time.Time { return fixedNow },
		Notifier:    notifier,
		Logger:      slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

func widgetCommand() service.UpsertProductCommand {
	return service.UpsertProductCommand{
		ID:          "p1",
		Name:        "Widget",
		PricePence:  500,
		Description: "A widget",
	}
}

func TestUpsertProduct_Success(t *testing.T) {
	ctx := context.Background()
	repo := &mockProductRepository{}
	notifier := &mockNotifier{}
	var logs bytes.Buffer

	var saved domain.Product
	repo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID() == "p1" && p.UpdatedAt().Equal(fixedNow)
	})).Run(func(args mock.Arguments) {
		saved = args.Get(1).(domain.Product)
	}).Return(mustWidget(t), nil).Once()

	wantDto := dto.ProductUpdatedDto{
		ID:          "p1",
		Name:        "Widget",
		PricePence:  500,
		Description: "A widget",
		UpdatedAt:   "2024-01-01T00:00:00.000Z",
	}
	notifier.On("NotifyProductUpdated", mock.Anything, wantDto).Return(nil).Once()

	result := service.UpsertProduct(ctx, newDeps(repo, notifier, &logs), widgetCommand())

	require.True(t, result.Success, "unexpected failure: %s", result.Error)
	assert.Empty(t, result.Error)
	require.NotNil(t, result.Data)
	assert.Equal(t, "p1", result.Data.ID())
	assert.Equal(t, "Widget", result.Data.Name())
	assert.Equal(t, int64(500), result.Data.PricePence())
	assert.Equal(t, "A widget", result.Data.Description())
	assert.True(t, result.Data.UpdatedAt().Equal(fixedNow))
	assert.Equal(t, "Widget", saved.Name())
	assert.NoError(t, result.Err())

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestUpsertProduct_UsesRepositoryNormalizedProduct(t *testing.T) {
	ctx := context.Background()
	repo := &mockProductRepository{}
	notifier := &mockNotifier{}
	var logs bytes.Buffer

	normalizedAt := time.Date(2024, 6, 1, 8, 30, 0, 250_000_000, time.UTC)
	normalized, err := domain.NewProduct(domain.ProductParams{
		ID: "p1", Name: "Widget (v2)", PricePence: 500, Description: "A widget", UpdatedAt: normalizedAt,
	})
	require.NoError(t, err)

	repo.On("Save", mock.Anything, mock.Anything).Return(normalized, nil).Once()

	var got dto.ProductUpdatedDto
	notifier.On("NotifyProductUpdated", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(dto.ProductUpdatedDto) }).
		Return(nil).Once()

	result := service.UpsertProduct(ctx, newDeps(repo, notifier, &logs), widgetCommand())
	require.True(t, result.Success)

	p, ok := result.Product()
	require.True(t, ok)
	assert.Equal(t, "Widget (v2)", p.Name())

	want := dto.ProductUpdatedDto{
		ID:          "p1",
		Name:        "Widget (v2)",
		PricePence:  500,
		Description: "A widget",
		UpdatedAt:   "2024-06-01T08:30:00.250Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("notified dto mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertProduct_ValidationFailure(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*service.UpsertProductCommand)
		errIs  error
	}{
		{
			name:   "empty id",
			mutate: func(c *service.UpsertProductCommand) { c.ID = "" },
			errIs:  domain.ErrInvalidProductID,
		},
		{
			name:   "empty name",
			mutate: func(c *service.UpsertProductCommand) { c.Name = "" },
			errIs:  domain.ErrInvalidProductName,
		},
		{
			name:   "negative price",
			mutate: func(c *service.UpsertProductCommand) { c.PricePence = -100 },
			errIs:  domain.ErrInvalidProductPrice,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockProductRepository{}
			notifier := &mockNotifier{}
			var logs bytes.Buffer

			cmd := widgetCommand()
			tc.mutate(&cmd)

			result := service.UpsertProduct(context.Background(), newDeps(repo, notifier, &logs), cmd)

			assert.False(t, result.Success)
			assert.Nil(t, result.Data)
			assert.NotEmpty(t, result.Error)
			assert.Contains(t, result.Error, tc.errIs.Error())

			_, ok := result.Product()
			assert.False(t, ok)

			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			notifier.AssertNotCalled(t, "NotifyProductUpdated", mock.Anything, mock.Anything)
			assert.Empty(t, logs.String(), "nothing is logged before the entity is built")
		})
	}
}

func TestUpsertProduct_SaveFailure(t *testing.T) {
	repo := &mockProductRepository{}
	notifier := &mockNotifier{}
	var logs bytes.Buffer

	repo.On("Save", mock.Anything, mock.Anything).
		Return(domain.Product{}, errors.New("database unavailable")).Once()

	result := service.UpsertProduct(context.Background(), newDeps(repo, notifier, &logs), widgetCommand())

	assert.False(t, result.Success)
	assert.Equal(t, "database unavailable", result.Error)
	assert.EqualError(t, result.Err(), "database unavailable")
	notifier.AssertNotCalled(t, "NotifyProductUpdated", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestUpsertProduct_NotifyFailureAfterSave(t *testing.T) {
	repo := &mockProductRepository{}
	notifier := &mockNotifier{}
	var logs bytes.Buffer

	var persisted []domain.Product
	repo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { persisted = append(persisted, args.Get(1).(domain.Product)) }).
		Return(mustWidget(t), nil).Once()
	notifier.On("NotifyProductUpdated", mock.Anything, mock.Anything).
		Return(errors.New("broker unreachable")).Once()

	result := service.UpsertProduct(context.Background(), newDeps(repo, notifier, &logs), widgetCommand())

	// The save is not rolled back when notification fails.
	assert.False(t, result.Success)
	assert.Equal(t, "broker unreachable", result.Error)
	assert.Len(t, persisted, 1)
	assert.NotContains(t, logs.String(), "Product updated notification sent")

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestUpsertProduct_PanicBecomesFailure(t *testing.T) {
	repo := &mockProductRepository{}
	notifier := &mockNotifier{}
	var logs bytes.Buffer

	repo.On("Save", mock.Anything, mock.Anything).Panic("driver exploded")

	result := service.UpsertProduct(context.Background(), newDeps(repo, notifier, &logs), widgetCommand())

	assert.False(t, result.Success)
	assert.Equal(t, "driver exploded", result.Error)
	notifier.AssertNotCalled(t, "NotifyProductUpdated", mock.Anything, mock.Anything)
}

func TestUpsertProduct_LogSequence(t *testing.T) {
	repo := &mockProductRepository{}
	notifier := &mockNotifier{}
	var logs bytes.Buffer

	repo.On("Save", mock.Anything, mock.Anything).Return(mustWidget(t), nil)
	notifier.On("NotifyProductUpdated", mock.Anything, mock.Anything).Return(nil)

	result := service.UpsertProduct(context.Background(), newDeps(repo, notifier, &logs), widgetCommand())
	require.True(t, result.Success)

	wantInOrder := []string{
		"level=INFO msg=\"Upserting product with id: p1 at 2024-01-01T00:00:00.000Z\"",
		"level=INFO msg=\"Product upserted with id: p1\"",
		"level=DEBUG msg=\"Upserted product details: ",
		"level=INFO msg=\"Notifying product updated for id: p1\"",
		"level=INFO msg=\"Product updated notification sent for id: p1\"",
	}

	out := logs.String()
	pos := 0
	for _, want := range wantInOrder {
		idx := strings.Index(out[pos:], want)
		require.NotEqual(t, -1, idx, "missing or out of order: %s\nlogs:\n%s", want, out)
		pos += idx + len(want)
	}
}

func mustWidget(t *testing.T) domain.Product {
	t.Helper()
	p, err := domain.NewProduct(domain.ProductParams{
		ID: "p1", Name: "Widget", PricePence: 500, Description: "A widget", UpdatedAt: fixedNow,
	})
	require.NoError(t, err)
	return p
}
