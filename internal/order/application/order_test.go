package application

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/musicstore/internal/order/domain"
	"github.com/wyfcoding/musicstore/pkg/utils"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	gets   int
}

func newMemOrders() *memOrders { return &memOrders{orders: map[string]*domain.Order{}} }

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		cp := *o
		m.orders[o.ID] = &cp
	}
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) sorted(keep func(*domain.Order) bool) []*domain.Order {
	var out []*domain.Order
	for _, o := range m.orders {
		if keep(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (m *memOrders) ListAll(_ context.Context, offset, limit int) ([]*domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(*domain.Order) bool { return true })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, st domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = st
	return nil
}

type memCache map[string]*domain.Order

func (c memCache) Get(_ context.Context, id string) (*domain.Order, error) { return c[id], nil }
func (c memCache) Save(_ context.Context, o *domain.Order) error           { c[o.ID] = o; return nil }
func (c memCache) Invalidate(_ context.Context, id string) error           { delete(c, id); return nil }

type recordingPublisher struct{ events []any }

func (p *recordingPublisher) Publish(_ context.Context, _, _ string, event any) error {
	p.events = append(p.events, event)
	return nil
}

func seed(t *testing.T, repo *memOrders, id, userID string, created time.Time) {
	t.Helper()
	o, err := domain.NewOrder(id, userID, []domain.LineItem{{ProductID: "p1", Price: 1000, Quantity: 1}}, domain.ShippingAddress{}, "pi", created)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))
}

func TestGetOrderVisibility(t *testing.T) {
	repo := newMemOrders()
	seed(t, repo, "o1", "u1", time.Now())
	query := NewOrderQueryService(repo, memCache{})
	ctx := context.Background()

	_, err := query.GetOrder(ctx, "o1", "u1", false)
	require.NoError(t, err)
	_, err = query.GetOrder(ctx, "o1", "u2", false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = query.GetOrder(ctx, "o1", "u2", true)
	assert.NoError(t, err)
	_, err = query.GetOrder(ctx, "missing", "u1", true)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	// 首次读取后命中缓存
	assert.Equal(t, 2, repo.gets)
}

func TestUpdateStatusInvalidatesCache(t *testing.T) {
	repo := newMemOrders()
	seed(t, repo, "o1", "u1", time.Now())
	cache := memCache{}
	pub := &recordingPublisher{}
	cmd := NewOrderCommandService(repo, cache, pub)
	query := NewOrderQueryService(repo, cache)
	ctx := context.Background()

	_, err := query.GetOrder(ctx, "o1", "u1", false)
	require.NoError(t, err)
	require.Contains(t, cache, "o1")

	o, err := cmd.UpdateStatus(ctx, "o1", "発送済み")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)
	assert.NotContains(t, cache, "o1")

	got, err := query.GetOrder(ctx, "o1", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)

	_, err = cmd.UpdateStatus(ctx, "o1", "")
	require.NoError(t, err)
	require.Len(t, pub.events, 2)
	last := pub.events[1].(domain.OrderStatusChangedEvent)
	assert.Equal(t, domain.StatusShipped, last.OldStatus)
	assert.Equal(t, domain.StatusUnset, last.NewStatus)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo := newMemOrders()
	seed(t, repo, "o1", "u1", time.Now())
	_, err := NewOrderCommandService(repo, nil, nil).UpdateStatus(context.Background(), "o1", "shipped")
	var invalid *domain.InvalidStatusError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.StatusUnset, repo.orders["o1"].Status)
}

func TestListOrdersNewestFirst(t *testing.T) {
	repo := newMemOrders()
	now := time.Now()
	seed(t, repo, "old", "u1", now.Add(-2*time.Hour))
	seed(t, repo, "new", "u2", now)
	seed(t, repo, "mid", "u1", now.Add(-time.Hour))
	query := NewOrderQueryService(repo, nil)

	orders, page, err := query.ListOrders(context.Background(), utils.NewPagination(1, 2, 0))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "new", orders[0].ID)
	assert.Equal(t, "mid", orders[1].ID)
	assert.EqualValues(t, 3, page.Total)
	assert.EqualValues(t, 2, page.Pages)

	mine, err := query.ListMyOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "mid", mine[0].ID)
}
