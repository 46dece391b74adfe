package recommend

import "context"

// Product 商品快照（含销量统计，打分过程的只读输入）
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	TotalSold int     `json:"total_sold"`
}

// LineItem 行项目快照（购物车/心愿单/订单通用）
type LineItem struct {
	ProductID int64
	Category  string
	Quantity  int
	Price     float64
}

// Cart 购物车快照
type Cart struct {
	UserID     int64
	HasProfile bool
	Items      []LineItem
}

// Wishlist 心愿单快照
type Wishlist struct {
	UserID int64
	Items  []LineItem
}

// Order 订单快照
type Order struct {
	UserID      int64
	Status      string
	TotalAmount float64
	Items       []LineItem
}

// UserActivity 单个用户触达过的类目集合（类目共现事务的输入）
type UserActivity struct {
	UserID             int64
	CartCategories     []string
	OrderCategories    []string
	WishlistCategories []string
}

// UserContext 个性化打分上下文
type UserContext struct {
	UserID             int64
	CartProductIDs     map[int64]bool
	WishlistProductIDs map[int64]bool
	CategoryPurchases  map[string]int // 类目名 → 历史购买行项目数
	Categories         []string       // 购物车/心愿单/订单触达过的去重类目
}

// Transaction 一笔符号化事务：去重后的 token 集合，保持首次出现顺序
type Transaction []string

// Itemset 频繁项集（token 已排序）及其支持计数
type Itemset struct {
	Tokens []string
	Count  int
}

// Rule 关联规则
// Support/Confidence 为百分比，Lift 为比值，均保留两位小数
type Rule struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
}

// Recommendation 推荐记录
type Recommendation struct {
	Product       Product  `json:"product"`
	Score         float64  `json:"score"`
	MatchingRules int      `json:"matching_rules_count"`
	Reasons       []string `json:"recommendation_reasons"`
	TotalSold     int      `json:"total_sold"`
	InStock       int      `json:"in_stock"`
	Attributes    []string `json:"product_attributes"`
}

// CatalogSource 商品目录只读查询能力
// 由宿主应用提供快照语义的实现，核心不做任何写操作
type CatalogSource interface {
	// InStockProducts 在售商品（stock > 0），category 为空表示不过滤
	InStockProducts(ctx context.Context, category string) ([]Product, error)

	// ProductsWithSales 至少产生过一次销售的商品
	ProductsWithSales(ctx context.Context) ([]Product, error)

	// TopCategories 头部类目名称（批量刷新用）
	TopCategories(ctx context.Context, limit int) ([]string, error)
}

// BehaviorSource 用户行为只读查询能力
type BehaviorSource interface {
	// Carts 含行项目的购物车快照
	Carts(ctx context.Context) ([]Cart, error)

	// Wishlists 含条目的心愿单快照
	Wishlists(ctx context.Context) ([]Wishlist, error)

	// SettledOrders 状态为 completed/paid/shipped 的订单快照
	SettledOrders(ctx context.Context) ([]Order, error)

	// UserActivities 有购物车或订单行为的用户的类目触达记录
	UserActivities(ctx context.Context) ([]UserActivity, error)

	// UserContext 单个用户的个性化上下文
	UserContext(ctx context.Context, userID int64) (*UserContext, error)
}
