package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoprec/internal/recommend"
	"shoprec/pkg/config"
	"shoprec/pkg/errorutil"
	"shoprec/pkg/logger"
)

// memStore 内存版 Store
type memStore struct {
	entries map[string]interface{}
	cleared []string
	setErr  error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]interface{})}
}

func (m *memStore) SetJSON(ctx context.Context, key string, value interface{}) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = value
	return nil
}

func (m *memStore) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.cleared = append(m.cleared, pattern)
	n := len(m.entries)
	m.entries = make(map[string]interface{})
	return n, nil
}

// stubCatalog 固定商品集的目录源
type stubCatalog struct {
	products   []recommend.Product
	categories []string
	failTop    bool
}

func (s *stubCatalog) InStockProducts(ctx context.Context, category string) ([]recommend.Product, error) {
	var out []recommend.Product
	for _, p := range s.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) ProductsWithSales(ctx context.Context) ([]recommend.Product, error) {
	return nil, nil
}

func (s *stubCatalog) TopCategories(ctx context.Context, limit int) ([]string, error) {
	if s.failTop {
		return nil, errors.New("catalog unavailable")
	}
	if limit > 0 && len(s.categories) > limit {
		return s.categories[:limit], nil
	}
	return s.categories, nil
}

// stubBehavior 空行为源：不产生任何事务
type stubBehavior struct{}

func (s *stubBehavior) Carts(ctx context.Context) ([]recommend.Cart, error)         { return nil, nil }
func (s *stubBehavior) Wishlists(ctx context.Context) ([]recommend.Wishlist, error) { return nil, nil }
func (s *stubBehavior) SettledOrders(ctx context.Context) ([]recommend.Order, error) {
	return nil, nil
}
func (s *stubBehavior) UserActivities(ctx context.Context) ([]recommend.UserActivity, error) {
	return nil, nil
}
func (s *stubBehavior) UserContext(ctx context.Context, userID int64) (*recommend.UserContext, error) {
	return nil, nil
}

func newTestHandler(catalog *stubCatalog, store Store) *Handler {
	cfg := config.DefaultEngine()
	svc := recommend.NewService(catalog, &stubBehavior{}, cfg, logger.NewNopLogger())
	return NewHandler(svc, catalog, store, cfg, logger.NewNopLogger())
}

func TestHandle_RefreshesCategoriesGeneralAndRules(t *testing.T) {
	catalog := &stubCatalog{
		products: []recommend.Product{
			{ID: 1, Category: "Electronics", Price: 600, Stock: 30, TotalSold: 15},
			{ID: 2, Category: "Books", Price: 600, Stock: 30, TotalSold: 15},
		},
		categories: []string{"Electronics", "Books"},
	}
	store := newMemStore()
	h := newTestHandler(catalog, store)

	err := h.Handle(context.Background(), nil)
	require.NoError(t, err)

	// 2 个类目 + 全站 + 规则集
	assert.Len(t, store.entries, 4)
	assert.Empty(t, store.cleared)

	// 无事务可挖时固化样例规则
	var rulesEntry interface{}
	for key, value := range store.entries {
		if len(key) >= 10 && key[5:10] == "rules" {
			rulesEntry = value
		}
	}
	require.NotNil(t, rulesEntry, "rules entry missing, keys: %v", keys(store.entries))
	assert.Equal(t, recommend.SampleRules(), rulesEntry)
}

func TestHandle_ClearCache(t *testing.T) {
	catalog := &stubCatalog{categories: []string{"Electronics"}}
	store := newMemStore()
	h := newTestHandler(catalog, store)

	payload, _ := json.Marshal(Payload{ClearCache: true})
	err := h.Handle(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"reco:*"}, store.cleared)
}

func TestHandle_TopCategoriesFailureIsRetryable(t *testing.T) {
	catalog := &stubCatalog{failTop: true}
	h := newTestHandler(catalog, newMemStore())

	err := h.Handle(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errorutil.IsRetryable(err))
}

func TestHandle_MalformedPayloadIsNotRetryable(t *testing.T) {
	catalog := &stubCatalog{categories: []string{"Electronics"}}
	h := newTestHandler(catalog, newMemStore())

	err := h.Handle(context.Background(), json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.False(t, errorutil.IsRetryable(err))
}

func TestHandle_StoreFailureIsBestEffort(t *testing.T) {
	catalog := &stubCatalog{categories: []string{"Electronics"}}
	store := newMemStore()
	store.setErr = errors.New("redis down")
	h := newTestHandler(catalog, store)

	// 缓存写失败不阻断刷新任务
	assert.NoError(t, h.Handle(context.Background(), nil))
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
