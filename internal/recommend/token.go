package recommend

import (
	"fmt"
	"strings"

	"shoprec/pkg/config"
)

// token 前缀：事务、项集、规则与商品属性共享同一套词表
const (
	prefixProduct           = "Product_"
	prefixCategory          = "Category_"
	prefixPrice             = "Price_"
	prefixUserCategory      = "User_Category_"
	prefixPurchasedCategory = "Purchased_Category_"
	prefixWishlistCategory  = "Wishlist_Category_"
)

// 固定事实 token
const (
	tokenUserHasProfile      = "User_Has_Profile"
	tokenWishlistItem        = "Wishlist_Item"
	tokenPurchasedProduct    = "Purchased_Product"
	tokenHighValuePurchase   = "High_Value_Purchase"
	tokenMediumValuePurchase = "Medium_Value_Purchase"
	tokenLowValuePurchase    = "Low_Value_Purchase"
)

// 价格/库存/销量分层 token
const (
	tokenPriceHigh       = "Price_High"
	tokenPriceMediumHigh = "Price_Medium_High"
	tokenPriceMedium     = "Price_Medium"
	tokenPriceLowMedium  = "Price_Low_Medium"
	tokenPriceLow        = "Price_Low"
	tokenPremiumProduct  = "Premium_Product"
	tokenBudgetProduct   = "Budget_Product"
	tokenHighStock       = "High_Stock"
	tokenMediumStock     = "Medium_Stock"
	tokenLowStock        = "Low_Stock"
	tokenBestSeller      = "Best_Seller"
	tokenHighDemand      = "High_Demand"
	tokenPopularItem     = "Popular_Item"
	tokenTechProduct     = "Tech_Product"
	tokenFashionProduct  = "Fashion_Product"
	tokenHomeProduct     = "Home_Product"
)

// actionablePatterns 可行动 token 模式：后件中至少命中一个，
// 规则才能被转化为商品推荐
var actionablePatterns = []string{
	prefixProduct, prefixCategory,
	tokenBestSeller, tokenPopularItem,
	tokenTechProduct, tokenFashionProduct, tokenHomeProduct,
	tokenPremiumProduct, tokenBudgetProduct,
}

// normalizeCategory 类目名归一化（空白 → 下划线），保证 token 可按字符串精确比较
func normalizeCategory(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

// productToken 商品 token
func productToken(id int64) string {
	return fmt.Sprintf("%s%d", prefixProduct, id)
}

// categoryToken 类目 token
func categoryToken(name string) string {
	return prefixCategory + normalizeCategory(name)
}

func userCategoryToken(name string) string {
	return prefixUserCategory + normalizeCategory(name)
}

func purchasedCategoryToken(name string) string {
	return prefixPurchasedCategory + normalizeCategory(name)
}

func wishlistCategoryToken(name string) string {
	return prefixWishlistCategory + normalizeCategory(name)
}

// productAttributes 计算商品属性集合
// 事务构建与打分共用同一份计算，库存/价格/销量随快照变化，不跨次缓存
func productAttributes(p Product, cfg config.EngineConfig) []string {
	attrs := []string{
		productToken(p.ID),
		categoryToken(p.Category),
	}

	// 价格分层（5 档）
	switch {
	case p.Price >= cfg.PriceHigh:
		attrs = append(attrs, tokenPriceHigh, tokenPremiumProduct)
	case p.Price >= cfg.PriceMediumHigh:
		attrs = append(attrs, tokenPriceMediumHigh)
	case p.Price >= cfg.PriceMedium:
		attrs = append(attrs, tokenPriceMedium)
	case p.Price >= cfg.PriceLowMedium:
		attrs = append(attrs, tokenPriceLowMedium)
	default:
		attrs = append(attrs, tokenPriceLow, tokenBudgetProduct)
	}

	// 库存分层（3 档）
	switch {
	case p.Stock >= cfg.StockHigh:
		attrs = append(attrs, tokenHighStock)
	case p.Stock >= cfg.StockMedium:
		attrs = append(attrs, tokenMediumStock)
	default:
		attrs = append(attrs, tokenLowStock)
	}

	// 销量分层
	switch {
	case p.TotalSold >= cfg.BestSellerSales:
		attrs = append(attrs, tokenBestSeller, tokenHighDemand)
	case p.TotalSold >= cfg.PopularSales:
		attrs = append(attrs, tokenPopularItem)
	}

	// 类目关键词标签
	if tag := categoryKeywordTag(p.Category, cfg); tag != "" {
		attrs = append(attrs, tag)
	}

	return attrs
}

// categoryKeywordTag 类目关键词标签（大小写不敏感的子串匹配，命中第一个分组即返回）
func categoryKeywordTag(category string, cfg config.EngineConfig) string {
	lower := strings.ToLower(category)
	if containsAny(lower, cfg.TechKeywords) {
		return tokenTechProduct
	}
	if containsAny(lower, cfg.FashionKeywords) {
		return tokenFashionProduct
	}
	if containsAny(lower, cfg.HomeKeywords) {
		return tokenHomeProduct
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// isActionableConsequent 判断后件是否包含可行动 token
func isActionableConsequent(tokens []string) bool {
	for _, tok := range tokens {
		for _, pattern := range actionablePatterns {
			if strings.Contains(tok, pattern) {
				return true
			}
		}
	}
	return false
}

// formatAttribute 将 token 转换为自然语言片段
func formatAttribute(attr string) string {
	switch {
	case strings.HasPrefix(attr, prefixCategory):
		return strings.ReplaceAll(strings.TrimPrefix(attr, prefixCategory), "_", " ") + " products"
	case strings.HasPrefix(attr, prefixProduct):
		return "this product"
	case strings.HasPrefix(attr, prefixPrice):
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(attr, prefixPrice), "_", " ")) + " priced items"
	default:
		return strings.ToLower(strings.ReplaceAll(attr, "_", " "))
	}
}

// formatReason 生成推荐理由
// 取后件中第一个命中商品属性的 token；前件逐个自然化后以 and 连接
func formatReason(rule Rule, attrs map[string]bool) string {
	var matched string
	for _, tok := range rule.Consequent {
		if attrs[tok] {
			matched = tok
			break
		}
	}
	if matched == "" {
		return ""
	}

	var antecedentText string
	if len(rule.Antecedent) == 1 {
		antecedentText = formatAttribute(rule.Antecedent[0])
	} else {
		parts := make([]string, 0, len(rule.Antecedent)-1)
		for _, a := range rule.Antecedent[:len(rule.Antecedent)-1] {
			parts = append(parts, formatAttribute(a))
		}
		antecedentText = strings.Join(parts, ", ") + " and " + formatAttribute(rule.Antecedent[len(rule.Antecedent)-1])
	}

	return fmt.Sprintf("Customers interested in %s also purchase %s", antecedentText, formatAttribute(matched))
}
