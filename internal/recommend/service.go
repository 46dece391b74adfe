package recommend

import (
	"context"
	"sort"

	"shoprec/pkg/config"
	"shoprec/pkg/logger"
)

// Service 推荐服务
// 无跨请求状态：每次调用基于数据快照完整执行 构建事务 → 挖掘 → 推导规则 → 打分，
// 并发调用天然隔离；阈值等参数在构建时显式传入
type Service struct {
	catalog  CatalogSource
	behavior BehaviorSource
	builder  *TransactionBuilder
	scorer   *Scorer
	cfg      config.EngineConfig
	log      logger.Logger
}

// NewService 创建推荐服务实例
func NewService(catalog CatalogSource, behavior BehaviorSource, cfg config.EngineConfig, log logger.Logger) *Service {
	return &Service{
		catalog:  catalog,
		behavior: behavior,
		builder:  NewTransactionBuilder(catalog, behavior, cfg, log),
		scorer:   NewScorer(cfg, log),
		cfg:      cfg,
		log:      log,
	}
}

// MineRules 挖掘关联规则
// 行为事务与商品属性事务合并后执行 Apriori；
// 空输入返回空规则列表（合法的静默结果），数据访问失败已在构建器内降级
func (s *Service) MineRules(ctx context.Context) []Rule {
	userTxns := s.builder.UserTransactions(ctx)
	attrTxns := s.builder.ProductAttributeTransactions(ctx)

	transactions := make([]Transaction, 0, len(userTxns)+len(attrTxns))
	transactions = append(transactions, userTxns...)
	transactions = append(transactions, attrTxns...)

	s.log.Infof(ctx, "[Service] total transactions for analysis: %d", len(transactions))

	if len(transactions) == 0 {
		s.log.Warnf(ctx, "[Service] no transactions found for analysis")
		return nil
	}

	result := MineFrequentItemsets(transactions, toFraction(s.cfg.MinSupport), s.cfg.MaxItemsetLength)
	s.log.Infof(ctx, "[Service] found %d frequent itemsets (min support count %d of %d)",
		result.TotalItemsets(), result.MinSupportCount, result.NumTransactions)

	rules := GenerateRules(result, toFraction(s.cfg.MinConfidence))
	s.log.Infof(ctx, "[Service] generated %d association rules", len(rules))

	return rules
}

// RecommendProducts 返回排序后的推荐列表
// user 可为 nil（不做个性化）；category 为空表示不过滤；
// 结果为空时代入降级样本，调用方不会看到空列表
func (s *Service) RecommendProducts(ctx context.Context, user *UserContext, category string, limit int) []Recommendation {
	rules := s.MineRules(ctx)

	recommendations := s.scoreCategory(ctx, rules, user, category, limit)
	if len(recommendations) == 0 {
		s.log.Warnf(ctx, "[Service] no scored recommendations, using fallback (category=%q)", category)
		return s.fallbackRecommendations(ctx, limit)
	}
	return recommendations
}

// RecommendForUser 个性化推荐：按用户触达过的类目扇出打分后合并
// 上下文缺失或无类目信号时降级为非个性化推荐
func (s *Service) RecommendForUser(ctx context.Context, userID int64, limit int) []Recommendation {
	user, err := s.behavior.UserContext(ctx, userID)
	if err != nil {
		s.log.Errorf(ctx, "[Service] load user context failed: user_id=%d, %v", userID, err)
		return s.RecommendProducts(ctx, nil, "", limit)
	}
	if user == nil || len(user.Categories) == 0 {
		s.log.Infof(ctx, "[Service] user %d has no category signal, falling back to general", userID)
		return s.RecommendProducts(ctx, nil, "", limit)
	}

	// 规则只挖一次，逐类目复用
	rules := s.MineRules(ctx)

	best := make(map[int64]Recommendation)
	var order []int64
	for _, category := range user.Categories {
		if category == "" {
			continue
		}
		for _, rec := range s.scoreCategory(ctx, rules, user, category, s.cfg.CategoryFanoutLimit) {
			current, ok := best[rec.Product.ID]
			if !ok {
				best[rec.Product.ID] = rec
				order = append(order, rec.Product.ID)
				continue
			}
			if rec.Score > current.Score {
				best[rec.Product.ID] = rec
			}
		}
	}

	merged := make([]Recommendation, 0, len(order))
	for _, id := range order {
		merged = append(merged, best[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	if len(merged) == 0 {
		return s.RecommendProducts(ctx, nil, "", limit)
	}
	return merged
}

// scoreCategory 单类目打分（不代入降级样本，供扇出聚合复用）
func (s *Service) scoreCategory(ctx context.Context, rules []Rule, user *UserContext, category string, limit int) []Recommendation {
	products, err := s.catalog.InStockProducts(ctx, category)
	if err != nil {
		s.log.Errorf(ctx, "[Service] query in-stock products failed: category=%q, %v", category, err)
		return nil
	}
	s.log.Debugf(ctx, "[Service] evaluating %d candidate products (category=%q)", len(products), category)

	return s.scorer.Score(ctx, products, rules, user, limit)
}
