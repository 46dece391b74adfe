package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"shoprec/internal/entity"
	"shoprec/internal/recommend"
)

// CatalogDAO 商品目录数据访问对象（只读快照查询）
// 实现 recommend.CatalogSource
type CatalogDAO struct {
	db *gorm.DB
}

// NewCatalogDAO 创建 CatalogDAO 实例
func NewCatalogDAO(db *gorm.DB) *CatalogDAO {
	return &CatalogDAO{db: db}
}

// productRow 商品查询行（含聚合销量）
type productRow struct {
	ID        int64   `gorm:"column:id"`
	Name      string  `gorm:"column:name"`
	Category  string  `gorm:"column:category"`
	Price     float64 `gorm:"column:price"`
	Stock     int     `gorm:"column:stock"`
	TotalSold int     `gorm:"column:total_sold"`
}

// InStockProducts 在售商品快照（stock > 0），category 为空表示不过滤
// 销量取该商品关联的订单行项目数
func (dao *CatalogDAO) InStockProducts(ctx context.Context, category string) ([]recommend.Product, error) {
	query := dao.db.WithContext(ctx).
		Table("products AS p").
		Select("p.id, p.name, c.name AS category, p.price, p.stock, COUNT(oi.id) AS total_sold").
		Joins("JOIN categories c ON c.id = p.category_id").
		Joins("LEFT JOIN order_items oi ON oi.product_id = p.id").
		Where("p.stock > 0").
		Group("p.id, p.name, c.name, p.price, p.stock")

	if category != "" {
		query = query.Where("c.name = ?", category)
	}

	var rows []productRow
	if err := query.Order("p.id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query in-stock products failed: %w", err)
	}

	return toProducts(rows), nil
}

// ProductsWithSales 至少产生过一次销售的商品快照
func (dao *CatalogDAO) ProductsWithSales(ctx context.Context) ([]recommend.Product, error) {
	var rows []productRow
	err := dao.db.WithContext(ctx).
		Table("products AS p").
		Select("p.id, p.name, c.name AS category, p.price, p.stock, COUNT(oi.id) AS total_sold").
		Joins("JOIN categories c ON c.id = p.category_id").
		Joins("JOIN order_items oi ON oi.product_id = p.id").
		Group("p.id, p.name, c.name, p.price, p.stock").
		Order("p.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query products with sales failed: %w", err)
	}

	return toProducts(rows), nil
}

// TopCategories 头部类目名称（批量刷新用）
func (dao *CatalogDAO) TopCategories(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := dao.db.WithContext(ctx).
		Model(&entity.Category{}).
		Order("id").
		Limit(limit).
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("query top categories failed: %w", err)
	}
	return names, nil
}

func toProducts(rows []productRow) []recommend.Product {
	products := make([]recommend.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, recommend.Product{
			ID:        row.ID,
			Name:      row.Name,
			Category:  row.Category,
			Price:     row.Price,
			Stock:     row.Stock,
			TotalSold: row.TotalSold,
		})
	}
	return products
}
