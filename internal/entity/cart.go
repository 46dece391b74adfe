package entity

import "time"

// Cart 购物车实体（每用户一个）
type Cart struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uk_user"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// CartItem 购物车行项目实体
type CartItem struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CartID    int64 `gorm:"column:cart_id;not null;index:idx_cart"`
	ProductID int64 `gorm:"column:product_id;not null;index:idx_product"`
	Quantity  int   `gorm:"column:quantity;not null;default:1"`
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
