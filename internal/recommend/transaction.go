package recommend

import (
	"context"
	"fmt"

	"shoprec/pkg/config"
	"shoprec/pkg/logger"
)

// settledStatuses 参与购买事务的订单状态
var settledStatuses = map[string]bool{
	"completed": true,
	"paid":      true,
	"shipped":   true,
}

// TransactionBuilder 将行为/目录快照转换为符号化事务
// 每次分析重新构建，不持有可变状态
type TransactionBuilder struct {
	behavior BehaviorSource
	catalog  CatalogSource
	cfg      config.EngineConfig
	log      logger.Logger
}

// NewTransactionBuilder 创建事务构建器
func NewTransactionBuilder(catalog CatalogSource, behavior BehaviorSource, cfg config.EngineConfig, log logger.Logger) *TransactionBuilder {
	return &TransactionBuilder{
		behavior: behavior,
		catalog:  catalog,
		cfg:      cfg,
		log:      log,
	}
}

// UserTransactions 构建行为事务（购物车/心愿单/购买/类目共现）
// 数据访问失败时降级为固定样本事务，不中断推荐链路
func (b *TransactionBuilder) UserTransactions(ctx context.Context) []Transaction {
	transactions, err := b.buildUserTransactions(ctx)
	if err != nil {
		b.log.Errorf(ctx, "[TransactionBuilder] build user transactions failed: %v", err)
		return SampleTransactions()
	}
	return transactions
}

func (b *TransactionBuilder) buildUserTransactions(ctx context.Context) ([]Transaction, error) {
	var transactions []Transaction

	// ===== 事务类型 1：购物车 =====
	carts, err := b.behavior.Carts(ctx)
	if err != nil {
		return nil, fmt.Errorf("query carts failed: %w", err)
	}
	for _, cart := range carts {
		if len(cart.Items) == 0 {
			continue
		}
		var tokens []string
		for _, item := range cart.Items {
			tokens = append(tokens, productToken(item.ProductID), categoryToken(item.Category))
		}
		if cart.HasProfile {
			tokens = append(tokens, tokenUserHasProfile)
		}
		if txn := newTransaction(tokens); txn != nil {
			transactions = append(transactions, txn)
		}
	}
	b.log.Infof(ctx, "[TransactionBuilder] prepared %d cart transactions", len(transactions))

	// ===== 事务类型 2：心愿单 =====
	wishlists, err := b.behavior.Wishlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("query wishlists failed: %w", err)
	}
	for _, wl := range wishlists {
		if len(wl.Items) == 0 {
			continue
		}
		var tokens []string
		for _, item := range wl.Items {
			tokens = append(tokens, productToken(item.ProductID), categoryToken(item.Category), tokenWishlistItem)
		}
		if txn := newTransaction(tokens); txn != nil {
			transactions = append(transactions, txn)
		}
	}

	// ===== 事务类型 3：购买历史 =====
	orders, err := b.behavior.SettledOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("query settled orders failed: %w", err)
	}
	for _, order := range orders {
		if !settledStatuses[order.Status] || len(order.Items) == 0 {
			continue
		}
		var tokens []string
		for _, item := range order.Items {
			tokens = append(tokens, productToken(item.ProductID), categoryToken(item.Category), tokenPurchasedProduct)
		}
		tokens = append(tokens, b.purchaseValueToken(order.TotalAmount))
		if txn := newTransaction(tokens); txn != nil {
			transactions = append(transactions, txn)
		}
	}

	// ===== 事务类型 4：类目共现 =====
	categoryTxns := b.categoryCooccurrenceTransactions(ctx)
	transactions = append(transactions, categoryTxns...)

	b.log.Infof(ctx, "[TransactionBuilder] total user transactions: %d", len(transactions))

	return transactions, nil
}

// purchaseValueToken 按订单总额选取唯一的价值分层 token
func (b *TransactionBuilder) purchaseValueToken(totalAmount float64) string {
	switch {
	case totalAmount >= b.cfg.HighValueAmount:
		return tokenHighValuePurchase
	case totalAmount >= b.cfg.MediumValueAmount:
		return tokenMediumValuePurchase
	default:
		return tokenLowValuePurchase
	}
}

// categoryCooccurrenceTransactions 每个活跃用户一笔类目共现事务
// 查询失败时只丢弃该流，不影响其他事务类型
func (b *TransactionBuilder) categoryCooccurrenceTransactions(ctx context.Context) []Transaction {
	activities, err := b.behavior.UserActivities(ctx)
	if err != nil {
		b.log.Errorf(ctx, "[TransactionBuilder] query user activities failed: %v", err)
		return nil
	}

	var transactions []Transaction
	for _, act := range activities {
		var tokens []string
		for _, c := range act.CartCategories {
			if c != "" {
				tokens = append(tokens, categoryToken(c), userCategoryToken(c))
			}
		}
		for _, c := range act.OrderCategories {
			if c != "" {
				tokens = append(tokens, categoryToken(c), purchasedCategoryToken(c))
			}
		}
		for _, c := range act.WishlistCategories {
			if c != "" {
				tokens = append(tokens, categoryToken(c), wishlistCategoryToken(c))
			}
		}
		if txn := newTransaction(tokens); txn != nil {
			transactions = append(transactions, txn)
		}
	}
	return transactions
}

// ProductAttributeTransactions 构建商品属性事务（有销量的商品，每个商品一笔）
func (b *TransactionBuilder) ProductAttributeTransactions(ctx context.Context) []Transaction {
	products, err := b.catalog.ProductsWithSales(ctx)
	if err != nil {
		b.log.Errorf(ctx, "[TransactionBuilder] query products with sales failed: %v", err)
		return nil
	}

	var transactions []Transaction
	for _, p := range products {
		if txn := newTransaction(productAttributes(p, b.cfg)); txn != nil {
			transactions = append(transactions, txn)
		}
	}
	b.log.Infof(ctx, "[TransactionBuilder] prepared %d product attribute transactions", len(transactions))

	return transactions
}

// newTransaction 去重（保持首次出现顺序）；去重后不足 2 个 token 的事务
// 不携带共现信号，返回 nil 表示丢弃
func newTransaction(tokens []string) Transaction {
	seen := make(map[string]bool, len(tokens))
	distinct := make(Transaction, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		distinct = append(distinct, tok)
	}
	if len(distinct) < 2 {
		return nil
	}
	return distinct
}
