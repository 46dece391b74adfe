package mysql

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shoprec/internal/entity"
	"shoprec/internal/recommend"
)

// BehaviorDAO 用户行为数据访问对象（只读快照查询）
// 实现 recommend.BehaviorSource
type BehaviorDAO struct {
	db *gorm.DB
}

// NewBehaviorDAO 创建 BehaviorDAO 实例
func NewBehaviorDAO(db *gorm.DB) *BehaviorDAO {
	return &BehaviorDAO{db: db}
}

// cartRow 购物车行项目查询行
type cartRow struct {
	CartID    int64  `gorm:"column:cart_id"`
	UserID    int64  `gorm:"column:user_id"`
	FirstName string `gorm:"column:first_name"`
	Profile   []byte `gorm:"column:profile"`
	ProductID int64  `gorm:"column:product_id"`
	Category  string `gorm:"column:category"`
	Quantity  int    `gorm:"column:quantity"`
}

// Carts 含行项目的购物车快照
func (dao *BehaviorDAO) Carts(ctx context.Context) ([]recommend.Cart, error) {
	var rows []cartRow
	err := dao.db.WithContext(ctx).
		Table("cart_items AS ci").
		Select("ci.cart_id, ct.user_id, u.first_name, u.profile, ci.product_id, c.name AS category, ci.quantity").
		Joins("JOIN carts ct ON ct.id = ci.cart_id").
		Joins("JOIN products p ON p.id = ci.product_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Joins("LEFT JOIN users u ON u.id = ct.user_id").
		Order("ci.cart_id, ci.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query cart items failed: %w", err)
	}

	byCart := make(map[int64]*recommend.Cart)
	var order []int64
	for _, row := range rows {
		cart, ok := byCart[row.CartID]
		if !ok {
			user := entity.User{FirstName: row.FirstName, Profile: datatypes.JSON(row.Profile)}
			cart = &recommend.Cart{
				UserID:     row.UserID,
				HasProfile: user.HasProfile(),
			}
			byCart[row.CartID] = cart
			order = append(order, row.CartID)
		}
		cart.Items = append(cart.Items, recommend.LineItem{
			ProductID: row.ProductID,
			Category:  row.Category,
			Quantity:  row.Quantity,
		})
	}

	carts := make([]recommend.Cart, 0, len(order))
	for _, id := range order {
		carts = append(carts, *byCart[id])
	}
	return carts, nil
}

// wishlistRow 心愿单条目查询行
type wishlistRow struct {
	WishlistID int64  `gorm:"column:wishlist_id"`
	UserID     int64  `gorm:"column:user_id"`
	ProductID  int64  `gorm:"column:product_id"`
	Category   string `gorm:"column:category"`
}

// Wishlists 含条目的心愿单快照
func (dao *BehaviorDAO) Wishlists(ctx context.Context) ([]recommend.Wishlist, error) {
	var rows []wishlistRow
	err := dao.db.WithContext(ctx).
		Table("wishlist_items AS wi").
		Select("wi.wishlist_id, w.user_id, wi.product_id, c.name AS category").
		Joins("JOIN wishlists w ON w.id = wi.wishlist_id").
		Joins("JOIN products p ON p.id = wi.product_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Order("wi.wishlist_id, wi.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query wishlist items failed: %w", err)
	}

	byList := make(map[int64]*recommend.Wishlist)
	var order []int64
	for _, row := range rows {
		wl, ok := byList[row.WishlistID]
		if !ok {
			wl = &recommend.Wishlist{UserID: row.UserID}
			byList[row.WishlistID] = wl
			order = append(order, row.WishlistID)
		}
		wl.Items = append(wl.Items, recommend.LineItem{
			ProductID: row.ProductID,
			Category:  row.Category,
		})
	}

	wishlists := make([]recommend.Wishlist, 0, len(order))
	for _, id := range order {
		wishlists = append(wishlists, *byList[id])
	}
	return wishlists, nil
}

// orderRow 订单行项目查询行
type orderRow struct {
	OrderID     int64   `gorm:"column:order_id"`
	UserID      int64   `gorm:"column:user_id"`
	Status      string  `gorm:"column:status"`
	TotalAmount float64 `gorm:"column:total_amount"`
	ProductID   int64   `gorm:"column:product_id"`
	Category    string  `gorm:"column:category"`
	Quantity    int     `gorm:"column:quantity"`
	Price       float64 `gorm:"column:price"`
}

// SettledOrders 已完结订单快照（completed/paid/shipped）
func (dao *BehaviorDAO) SettledOrders(ctx context.Context) ([]recommend.Order, error) {
	var rows []orderRow
	err := dao.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.order_id, o.user_id, o.status, o.total_amount, oi.product_id, c.name AS category, oi.quantity, oi.price").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN products p ON p.id = oi.product_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Where("o.status IN ?", entity.SettledOrderStatuses()).
		Order("oi.order_id, oi.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query settled orders failed: %w", err)
	}

	byOrder := make(map[int64]*recommend.Order)
	var order []int64
	for _, row := range rows {
		o, ok := byOrder[row.OrderID]
		if !ok {
			o = &recommend.Order{
				UserID:      row.UserID,
				Status:      row.Status,
				TotalAmount: row.TotalAmount,
			}
			byOrder[row.OrderID] = o
			order = append(order, row.OrderID)
		}
		o.Items = append(o.Items, recommend.LineItem{
			ProductID: row.ProductID,
			Category:  row.Category,
			Quantity:  row.Quantity,
			Price:     row.Price,
		})
	}

	orders := make([]recommend.Order, 0, len(order))
	for _, id := range order {
		orders = append(orders, *byOrder[id])
	}
	return orders, nil
}

// userCategoryRow 用户-类目查询行
type userCategoryRow struct {
	UserID   int64  `gorm:"column:user_id"`
	Category string `gorm:"column:category"`
}

// UserActivities 有购物车或订单行为的用户的类目触达记录
// 心愿单类目只为这批用户补充，不单独产生活跃用户
func (dao *BehaviorDAO) UserActivities(ctx context.Context) ([]recommend.UserActivity, error) {
	cartRows, err := dao.distinctCartCategories(ctx, 0)
	if err != nil {
		return nil, err
	}
	orderRows, err := dao.distinctOrderCategories(ctx, 0)
	if err != nil {
		return nil, err
	}
	wishlistRows, err := dao.distinctWishlistCategories(ctx, 0)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64]*recommend.UserActivity)
	activity := func(userID int64) *recommend.UserActivity {
		act, ok := byUser[userID]
		if !ok {
			act = &recommend.UserActivity{UserID: userID}
			byUser[userID] = act
		}
		return act
	}

	for _, row := range cartRows {
		act := activity(row.UserID)
		act.CartCategories = append(act.CartCategories, row.Category)
	}
	for _, row := range orderRows {
		act := activity(row.UserID)
		act.OrderCategories = append(act.OrderCategories, row.Category)
	}
	for _, row := range wishlistRows {
		if act, ok := byUser[row.UserID]; ok {
			act.WishlistCategories = append(act.WishlistCategories, row.Category)
		}
	}

	ids := make([]int64, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	activities := make([]recommend.UserActivity, 0, len(ids))
	for _, id := range ids {
		activities = append(activities, *byUser[id])
	}
	return activities, nil
}

// UserContext 单个用户的个性化上下文
func (dao *BehaviorDAO) UserContext(ctx context.Context, userID int64) (*recommend.UserContext, error) {
	uc := &recommend.UserContext{
		UserID:             userID,
		CartProductIDs:     make(map[int64]bool),
		WishlistProductIDs: make(map[int64]bool),
		CategoryPurchases:  make(map[string]int),
	}

	// 购物车商品
	var cartProductIDs []int64
	err := dao.db.WithContext(ctx).
		Table("cart_items AS ci").
		Joins("JOIN carts ct ON ct.id = ci.cart_id").
		Where("ct.user_id = ?", userID).
		Pluck("ci.product_id", &cartProductIDs).Error
	if err != nil {
		return nil, fmt.Errorf("query user cart products failed: %w", err)
	}
	for _, id := range cartProductIDs {
		uc.CartProductIDs[id] = true
	}

	// 心愿单商品
	var wishlistProductIDs []int64
	err = dao.db.WithContext(ctx).
		Table("wishlist_items AS wi").
		Joins("JOIN wishlists w ON w.id = wi.wishlist_id").
		Where("w.user_id = ?", userID).
		Pluck("wi.product_id", &wishlistProductIDs).Error
	if err != nil {
		return nil, fmt.Errorf("query user wishlist products failed: %w", err)
	}
	for _, id := range wishlistProductIDs {
		uc.WishlistProductIDs[id] = true
	}

	// 历史购买的类目计数
	type purchaseRow struct {
		Category string `gorm:"column:category"`
		Count    int    `gorm:"column:cnt"`
	}
	var purchases []purchaseRow
	err = dao.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("c.name AS category, COUNT(*) AS cnt").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN products p ON p.id = oi.product_id").
		Joins("JOIN categories c ON c.id = p.category_id").
		Where("o.user_id = ?", userID).
		Group("c.name").
		Scan(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("query user purchases failed: %w", err)
	}
	for _, row := range purchases {
		uc.CategoryPurchases[row.Category] = row.Count
	}

	// 触达过的去重类目（购物车 + 心愿单 + 订单）
	cartCats, err := dao.distinctCartCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	wishlistCats, err := dao.distinctWishlistCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	orderCats, err := dao.distinctOrderCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, rows := range [][]userCategoryRow{cartCats, wishlistCats, orderCats} {
		for _, row := range rows {
			if row.Category != "" && !seen[row.Category] {
				seen[row.Category] = true
				uc.Categories = append(uc.Categories, row.Category)
			}
		}
	}

	return uc, nil
}

// distinctCartCategories 购物车触达的用户-类目对；userID 为 0 表示全量
func (dao *BehaviorDAO) distinctCartCategories(ctx context.Context, userID int64) ([]userCategoryRow, error) {
	query := dao.db.WithContext(ctx).
		Table("cart_items AS ci").
		Select("DISTINCT ct.user_id, c.name AS category").
		Joins("JOIN carts ct ON ct.id = ci.cart_id").
		Joins("JOIN products p ON p.id = ci.product_id").
		Joins("JOIN categories c ON c.id = p.category_id")
	if userID > 0 {
		query = query.Where("ct.user_id = ?", userID)
	}

	var rows []userCategoryRow
	if err := query.Order("ct.user_id, category").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query cart categories failed: %w", err)
	}
	return rows, nil
}

// distinctOrderCategories 订单触达的用户-类目对（不限订单状态）
func (dao *BehaviorDAO) distinctOrderCategories(ctx context.Context, userID int64) ([]userCategoryRow, error) {
	query := dao.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("DISTINCT o.user_id, c.name AS category").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN products p ON p.id = oi.product_id").
		Joins("JOIN categories c ON c.id = p.category_id")
	if userID > 0 {
		query = query.Where("o.user_id = ?", userID)
	}

	var rows []userCategoryRow
	if err := query.Order("o.user_id, category").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query order categories failed: %w", err)
	}
	return rows, nil
}

// distinctWishlistCategories 心愿单触达的用户-类目对
func (dao *BehaviorDAO) distinctWishlistCategories(ctx context.Context, userID int64) ([]userCategoryRow, error) {
	query := dao.db.WithContext(ctx).
		Table("wishlist_items AS wi").
		Select("DISTINCT w.user_id, c.name AS category").
		Joins("JOIN wishlists w ON w.id = wi.wishlist_id").
		Joins("JOIN products p ON p.id = wi.product_id").
		Joins("JOIN categories c ON c.id = p.category_id")
	if userID > 0 {
		query = query.Where("w.user_id = ?", userID)
	}

	var rows []userCategoryRow
	if err := query.Order("w.user_id, category").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query wishlist categories failed: %w", err)
	}
	return rows, nil
}
