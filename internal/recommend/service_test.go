package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoprec/pkg/config"
	"shoprec/pkg/logger"
)

func newTestService(catalog CatalogSource, behavior BehaviorSource) *Service {
	return NewService(catalog, behavior, config.DefaultEngine(), logger.NewNopLogger())
}

// richBehavior 能产生稳定规则集的行为快照
func richBehavior() *fakeBehavior {
	carts := make([]Cart, 0, 6)
	for i := 0; i < 6; i++ {
		carts = append(carts, Cart{
			UserID: int64(i + 1),
			Items: []LineItem{
				{ProductID: 1, Category: "Electronics"},
				{ProductID: 2, Category: "Accessories"},
			},
		})
	}
	return &fakeBehavior{carts: carts}
}

func TestMineRules_EmptyInputYieldsEmptyRules(t *testing.T) {
	svc := newTestService(&fakeCatalog{}, &fakeBehavior{})

	assert.Empty(t, svc.MineRules(context.Background()))
}

func TestMineRules_Idempotence(t *testing.T) {
	svc := newTestService(&fakeCatalog{}, richBehavior())
	ctx := context.Background()

	first := svc.MineRules(ctx)
	second := svc.MineRules(ctx)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "identical snapshot must yield identical rules")
}

func TestMineRules_ProducesCrossSellRules(t *testing.T) {
	svc := newTestService(&fakeCatalog{}, richBehavior())

	rules := svc.MineRules(context.Background())
	require.NotEmpty(t, rules)

	found := false
	for _, rule := range rules {
		if len(rule.Antecedent) == 1 && rule.Antecedent[0] == "Category_Electronics" {
			found = true
			assert.Equal(t, 100.0, rule.Confidence)
			assert.GreaterOrEqual(t, rule.Lift, 1.0)
		}
	}
	assert.True(t, found, "expected a rule with antecedent Category_Electronics")
}

func TestRecommendProducts_HeuristicOnlyWithoutRules(t *testing.T) {
	catalog := &fakeCatalog{
		products: []Product{
			{ID: 1, Category: "Electronics", Price: 600, Stock: 30, TotalSold: 15},
		},
	}
	svc := newTestService(catalog, &fakeBehavior{})

	recs := svc.RecommendProducts(context.Background(), nil, "", 10)

	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Product.ID)
	assert.Equal(t, 0, recs[0].MatchingRules)
	assert.Equal(t, 45.0, recs[0].Score) // 畅销 30 + 高库存 15
}

func TestRecommendProducts_CategoryFilter(t *testing.T) {
	catalog := &fakeCatalog{
		products: []Product{
			{ID: 1, Category: "Electronics", Price: 600, Stock: 30, TotalSold: 15},
			{ID: 2, Category: "Books", Price: 600, Stock: 30, TotalSold: 15},
		},
	}
	svc := newTestService(catalog, &fakeBehavior{})

	recs := svc.RecommendProducts(context.Background(), nil, "Books", 10)

	require.Len(t, recs, 1)
	assert.Equal(t, int64(2), recs[0].Product.ID)
}

func TestRecommendProducts_FallbackShapeOnTotalFailure(t *testing.T) {
	svc := newTestService(&fakeCatalog{failAll: true}, &fakeBehavior{failAll: true})

	recs := svc.RecommendProducts(context.Background(), nil, "", 10)

	require.Len(t, recs, 1)
	assert.Equal(t, 78.5, recs[0].Score)
	assert.Equal(t, 3, recs[0].MatchingRules)
	assert.Equal(t, []string{
		"Frequently purchased with similar items",
		"Popular in Electronics category",
		"High customer satisfaction",
	}, recs[0].Reasons)
}

func TestRecommendProducts_FallbackUsesRealProductsWhenAvailable(t *testing.T) {
	// 行为数据不可用但目录可用：降级结果基于真实在售商品
	catalog := &fakeCatalog{
		products: []Product{
			{ID: 1, Category: "Misc", Price: 600, Stock: 2, TotalSold: 0},
			{ID: 2, Category: "Misc", Price: 600, Stock: 2, TotalSold: 0},
		},
	}
	behavior := &fakeBehavior{failAll: true}
	svc := NewService(catalog, behavior, config.EngineConfig{
		MinSupport:       90.0, // 样本事务数下无频繁项集
		MinConfidence:    50.0,
		MaxItemsetLength: 3,
		PriceHigh:        5000, PriceMediumHigh: 2000, PriceMedium: 1000, PriceLowMedium: 500,
		StockHigh: 20, StockMedium: 5,
		BestSellerSales: 10, PopularSales: 5,
	}, logger.NewNopLogger())

	recs := svc.RecommendProducts(context.Background(), nil, "", 10)

	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, 78.5, rec.Score)
		assert.NotZero(t, rec.Product.ID)
	}
}

func TestRecommendForUser_MergesCategoriesKeepingMaxScore(t *testing.T) {
	catalog := &fakeCatalog{
		products: []Product{
			{ID: 1, Category: "Electronics", Price: 600, Stock: 30, TotalSold: 15},
			{ID: 2, Category: "Books", Price: 600, Stock: 2, TotalSold: 6},
		},
	}
	behavior := richBehavior()
	behavior.userContexts = map[int64]*UserContext{
		7: {
			UserID:             7,
			CartProductIDs:     map[int64]bool{1: true},
			WishlistProductIDs: map[int64]bool{1: true},
			CategoryPurchases:  map[string]int{"Electronics": 4},
			Categories:         []string{"Electronics", "Books"},
		},
	}
	svc := newTestService(catalog, behavior)

	recs := svc.RecommendForUser(context.Background(), 7, 10)

	require.NotEmpty(t, recs)

	// 每个商品至多出现一次
	seen := make(map[int64]bool)
	for _, rec := range recs {
		assert.False(t, seen[rec.Product.ID], "duplicate product %d", rec.Product.ID)
		seen[rec.Product.ID] = true
	}

	// 个性化加权下购物车+心愿单+忠诚类目的商品必须排第一
	assert.Equal(t, int64(1), recs[0].Product.ID)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}
}

func TestRecommendForUser_DegradesWithoutContext(t *testing.T) {
	catalog := &fakeCatalog{
		products: []Product{
			{ID: 1, Category: "Electronics", Price: 600, Stock: 30, TotalSold: 15},
		},
	}

	// 上下文查询失败
	svc := newTestService(catalog, &fakeBehavior{failContext: true})
	recs := svc.RecommendForUser(context.Background(), 7, 10)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Product.ID)

	// 用户无类目信号
	behavior := &fakeBehavior{
		userContexts: map[int64]*UserContext{7: {UserID: 7}},
	}
	svc = newTestService(catalog, behavior)
	recs = svc.RecommendForUser(context.Background(), 7, 10)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Product.ID)
}

func TestRecommendForUser_LimitApplied(t *testing.T) {
	products := make([]Product, 0, 8)
	for i := 0; i < 8; i++ {
		products = append(products, Product{
			ID: int64(i + 1), Category: "Electronics", Price: 600, Stock: 30, TotalSold: 15,
		})
	}
	behavior := &fakeBehavior{
		userContexts: map[int64]*UserContext{
			7: {UserID: 7, Categories: []string{"Electronics"}},
		},
	}
	svc := newTestService(&fakeCatalog{products: products}, behavior)

	recs := svc.RecommendForUser(context.Background(), 7, 3)

	assert.Len(t, recs, 3)
}
