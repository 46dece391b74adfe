package recommend

import (
	"context"
	"sort"

	"shoprec/pkg/config"
	"shoprec/pkg/logger"
)

// 启发式加权：规则分之外的固定加分项
const (
	boostBestSeller   = 30.0
	boostPopularItem  = 20.0
	boostHighStock    = 15.0
	boostPremiumPrice = 10.0
)

// 个性化加权
const (
	boostWishlisted       = 25.0
	boostInCart           = 20.0
	boostLoyalCategory    = 15.0 // 同类目历史购买 ≥3
	boostFamiliarCategory = 10.0 // 同类目历史购买 ≥1
	loyalPurchaseCount    = 3
)

// maxReasons 推荐理由上限（先到先留）
const maxReasons = 5

// Scorer 依据关联规则与启发式加权对候选商品打分排序
type Scorer struct {
	cfg config.EngineConfig
	log logger.Logger
}

// NewScorer 创建打分器
func NewScorer(cfg config.EngineConfig, log logger.Logger) *Scorer {
	return &Scorer{cfg: cfg, log: log}
}

// Score 对候选商品打分并返回截断后的推荐列表
// 规则分：后件与商品属性相交时累加 confidence × lift；
// 之后叠加销量/库存/价格加权与可选的个性化加权；总分 ≤0 的商品丢弃
func (s *Scorer) Score(ctx context.Context, products []Product, rules []Rule, user *UserContext, limit int) []Recommendation {
	recommendations := make([]Recommendation, 0, len(products))

	for _, p := range products {
		attrs := productAttributes(p, s.cfg)
		attrSet := make(map[string]bool, len(attrs))
		for _, a := range attrs {
			attrSet[a] = true
		}

		score := 0.0
		matchingRules := 0
		var reasons []string

		for _, rule := range rules {
			if !intersects(rule.Consequent, attrSet) {
				continue
			}
			score += rule.Confidence * rule.Lift
			matchingRules++

			if reason := formatReason(rule, attrSet); reason != "" && !containsString(reasons, reason) {
				reasons = append(reasons, reason)
			}
		}

		// 销量加权
		switch {
		case p.TotalSold >= s.cfg.BestSellerSales:
			score += boostBestSeller
			reasons = append(reasons, "Best-selling product")
		case p.TotalSold >= s.cfg.PopularSales:
			score += boostPopularItem
			reasons = append(reasons, "Popular item")
		}

		// 库存加权
		if p.Stock >= s.cfg.StockHigh {
			score += boostHighStock
			reasons = append(reasons, "High availability")
		}

		// 高价商品加权（无理由文案）
		if p.Price >= s.cfg.PriceHigh {
			score += boostPremiumPrice
		}

		// 个性化加权
		score += personalizationBoost(user, p)

		if score <= 0 {
			continue
		}

		if len(reasons) > maxReasons {
			reasons = reasons[:maxReasons]
		}

		recommendations = append(recommendations, Recommendation{
			Product:       p,
			Score:         round2(score),
			MatchingRules: matchingRules,
			Reasons:       reasons,
			TotalSold:     p.TotalSold,
			InStock:       p.Stock,
			Attributes:    attrs,
		})
	}

	// 分数降序；同分保持候选遍历顺序
	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Score > recommendations[j].Score
	})

	if limit > 0 && len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}

	s.log.Debugf(ctx, "[Scorer] scored %d candidates, kept %d", len(products), len(recommendations))

	return recommendations
}

// personalizationBoost 个性化加权（user 为 nil 时不加权）
func personalizationBoost(user *UserContext, p Product) float64 {
	if user == nil {
		return 0
	}
	boost := 0.0
	if user.WishlistProductIDs[p.ID] {
		boost += boostWishlisted
	}
	if user.CartProductIDs[p.ID] {
		boost += boostInCart
	}
	switch n := user.CategoryPurchases[p.Category]; {
	case n >= loyalPurchaseCount:
		boost += boostLoyalCategory
	case n >= 1:
		boost += boostFamiliarCategory
	}
	return boost
}

func intersects(tokens []string, set map[string]bool) bool {
	for _, tok := range tokens {
		if set[tok] {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
