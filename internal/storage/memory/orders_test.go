package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/order"
)

func newTestOrder(userID string, status order.Status) *order.Order {
	return &order.Order{
		ID:     uuid.New().String(),
		UserID: userID,
		Lines: []order.Line{
			{BookID: "b1", Quantity: 1, Price: decimal.RequireFromString("12.99")},
		},
		Total:     decimal.RequireFromString("12.99"),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

func TestOrderRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	o := newTestOrder("u1", order.StatusPending)
	require.NoError(t, repo.Insert(ctx, o))

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	_, err = repo.Get(ctx, uuid.New().String())
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepository_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	o := newTestOrder("u1", order.StatusPending)
	require.NoError(t, repo.Insert(ctx, o))
	require.Error(t, repo.Insert(ctx, o))
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	o := newTestOrder("u1", order.StatusPending)
	require.NoError(t, repo.Insert(ctx, o))

	// Mutating the inserted value or a read result must not leak into the store.
	o.Lines[0].Price = decimal.Zero
	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	got.Status = order.StatusShipped
	got.Lines[0].Quantity = 99

	again, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, again.Status)
	assert.Equal(t, 1, again.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("12.99").Equal(again.Lines[0].Price))
}

func TestOrderRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	var inserted []*order.Order
	for i, seed := range []struct {
		user   string
		status order.Status
	}{
		{"u1", order.StatusPending},
		{"u2", order.StatusPending},
		{"u1", order.StatusShipped},
		{"u3", order.StatusCancelled},
		{"u1", order.StatusPending},
	} {
		o := newTestOrder(seed.user, seed.status)
		o.ID = fmt.Sprintf("o%d", i)
		require.NoError(t, repo.Insert(ctx, o))
		inserted = append(inserted, o)
	}

	ids := func(orders []*order.Order) []string {
		out := make([]string, len(orders))
		for i, o := range orders {
			out[i] = o.ID
		}
		return out
	}

	for _, tt := range []struct {
		name   string
		filter order.Filter
		want   []string
	}{
		{"All", order.Filter{}, []string{"o0", "o1", "o2", "o3", "o4"}},
		{"ByUser", order.Filter{UserID: "u1"}, []string{"o0", "o2", "o4"}},
		{"ByStatus", order.Filter{Status: order.StatusPending}, []string{"o0", "o1", "o4"}},
		{"ByUserAndStatus", order.Filter{UserID: "u1", Status: order.StatusShipped}, []string{"o2"}},
		{"NoMatch", order.Filter{UserID: "u9"}, []string{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
	assert.Len(t, inserted, 5)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	o := newTestOrder("u1", order.StatusDelivered)
	require.NoError(t, repo.Insert(ctx, o))

	got, err := repo.UpdateStatus(ctx, o.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.True(t, o.Total.Equal(got.Total))
	assert.Equal(t, o.CreatedAt, got.CreatedAt)

	_, err = repo.UpdateStatus(ctx, "missing", order.StatusCancelled)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepository_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	target := newTestOrder("u1", order.StatusPending)
	require.NoError(t, repo.Insert(ctx, target))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = repo.Insert(ctx, newTestOrder(fmt.Sprintf("u%d", i), order.StatusPending))
		}()
		go func() {
			defer wg.Done()
			_, _ = repo.UpdateStatus(ctx, target.ID, order.Statuses[i%len(order.Statuses)])
		}()
	}
	wg.Wait()

	all, err := repo.List(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 51)
	assert.Equal(t, target.ID, all[0].ID)

	got, err := repo.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.Valid())
}
