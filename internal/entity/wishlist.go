package entity

import "time"

// Wishlist 心愿单实体（每用户一个）
type Wishlist struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uk_user"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (Wishlist) TableName() string {
	return "wishlists"
}

// WishlistItem 心愿单条目实体
type WishlistItem struct {
	ID         int64 `gorm:"column:id;primaryKey;autoIncrement"`
	WishlistID int64 `gorm:"column:wishlist_id;not null;index:idx_wishlist"`
	ProductID  int64 `gorm:"column:product_id;not null;index:idx_product"`
}

// TableName 指定表名
func (WishlistItem) TableName() string {
	return "wishlist_items"
}
