package entity

import "time"

// Category 商品类目实体
type Category struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(255);uniqueIndex:uk_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// Product 商品实体
type Product struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string    `gorm:"column:name;type:varchar(255);not null"`
	CategoryID int64     `gorm:"column:category_id;not null;index:idx_category"`
	Price      float64   `gorm:"column:price;type:decimal(12,2);not null"`
	Stock      int       `gorm:"column:stock;not null;default:0;index:idx_stock"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
