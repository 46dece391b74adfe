package entity

import "time"

// Order 订单实体
type Order struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64     `gorm:"column:user_id;not null;index:idx_user_status"`
	Status      string    `gorm:"column:status;type:varchar(16);not null;index:idx_user_status"`
	TotalAmount float64   `gorm:"column:total_amount;type:decimal(12,2);not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index:idx_created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// 订单状态常量
// 行为挖掘只采信已完成支付链路的订单
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// SettledOrderStatuses 参与行为挖掘的订单状态
func SettledOrderStatuses() []string {
	return []string{OrderStatusCompleted, OrderStatusPaid, OrderStatusShipped}
}

// OrderItem 订单行项目实体
type OrderItem struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64   `gorm:"column:order_id;not null;index:idx_order"`
	ProductID int64   `gorm:"column:product_id;not null;index:idx_product"`
	Quantity  int     `gorm:"column:quantity;not null;default:1"`
	Price     float64 `gorm:"column:price;type:decimal(12,2);not null"`
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
