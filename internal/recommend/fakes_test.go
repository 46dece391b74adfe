package recommend

import (
	"context"
	"errors"
)

var errSourceDown = errors.New("source unavailable")

// fakeCatalog 内存版目录源，支持按调用注入故障
type fakeCatalog struct {
	products []Product
	failAll  bool
}

func (f *fakeCatalog) InStockProducts(ctx context.Context, category string) ([]Product, error) {
	if f.failAll {
		return nil, errSourceDown
	}
	var out []Product
	for _, p := range f.products {
		if p.Stock <= 0 {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) ProductsWithSales(ctx context.Context) ([]Product, error) {
	if f.failAll {
		return nil, errSourceDown
	}
	var out []Product
	for _, p := range f.products {
		if p.TotalSold > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) TopCategories(ctx context.Context, limit int) ([]string, error) {
	if f.failAll {
		return nil, errSourceDown
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range f.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeBehavior 内存版行为源
type fakeBehavior struct {
	carts          []Cart
	wishlists      []Wishlist
	orders         []Order
	activities     []UserActivity
	userContexts   map[int64]*UserContext
	failAll        bool
	failActivities bool
	failContext    bool
}

func (f *fakeBehavior) Carts(ctx context.Context) ([]Cart, error) {
	if f.failAll {
		return nil, errSourceDown
	}
	return f.carts, nil
}

func (f *fakeBehavior) Wishlists(ctx context.Context) ([]Wishlist, error) {
	if f.failAll {
		return nil, errSourceDown
	}
	return f.wishlists, nil
}

func (f *fakeBehavior) SettledOrders(ctx context.Context) ([]Order, error) {
	if f.failAll {
		return nil, errSourceDown
	}
	return f.orders, nil
}

func (f *fakeBehavior) UserActivities(ctx context.Context) ([]UserActivity, error) {
	if f.failAll || f.failActivities {
		return nil, errSourceDown
	}
	return f.activities, nil
}

func (f *fakeBehavior) UserContext(ctx context.Context, userID int64) (*UserContext, error) {
	if f.failAll || f.failContext {
		return nil, errSourceDown
	}
	return f.userContexts[userID], nil
}
