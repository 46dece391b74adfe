package refresh

import (
	"context"
	"encoding/json"
	"fmt"

	"shoprec/internal/recommend"
	"shoprec/pkg/config"
	"shoprec/pkg/errorutil"
	rediscache "shoprec/pkg/infra/redis"
	"shoprec/pkg/logger"
)

// ActionType 刷新任务的 action_type
const ActionType = "recommend_refresh"

const (
	defaultCategoryLimit = 10
	defaultGeneralLimit  = 20
)

// Payload 刷新任务的业务载荷
type Payload struct {
	ClearCache    bool `json:"clear_cache"`
	CategoryLimit int  `json:"category_limit"`
	GeneralLimit  int  `json:"general_limit"`
}

// Store 刷新结果的写入端（生产实现为 Redis 缓存）
type Store interface {
	SetJSON(ctx context.Context, key string, value interface{}) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// Handler 批量刷新处理器
// 预热头部类目与全站推荐缓存，并固化最新规则集
type Handler struct {
	svc     *recommend.Service
	catalog recommend.CatalogSource
	cache   Store
	cfg     config.EngineConfig
	logger  logger.Logger
}

// NewHandler 创建刷新处理器
func NewHandler(svc *recommend.Service, catalog recommend.CatalogSource, cache Store,
	cfg config.EngineConfig, log logger.Logger) *Handler {
	return &Handler{
		svc:     svc,
		catalog: catalog,
		cache:   cache,
		cfg:     cfg,
		logger:  log,
	}
}

// Handle 执行一次批量刷新
// 刷新任务幂等：重复执行只会覆盖相同的缓存键
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) error {
	payload := Payload{
		CategoryLimit: defaultCategoryLimit,
		GeneralLimit:  defaultGeneralLimit,
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errorutil.NonRetriable(fmt.Sprintf("unmarshal refresh payload failed: %v", err))
		}
	}
	if payload.CategoryLimit <= 0 {
		payload.CategoryLimit = defaultCategoryLimit
	}
	if payload.GeneralLimit <= 0 {
		payload.GeneralLimit = defaultGeneralLimit
	}

	if payload.ClearCache {
		deleted, err := h.cache.DeleteByPattern(ctx, rediscache.RecommendationPattern())
		if err != nil {
			h.logger.Warnf(ctx, "[Refresh] Clear cache failed: %v", err)
		} else {
			h.logger.Infof(ctx, "[Refresh] Cleared %d cached entries", deleted)
		}
	}

	categories, err := h.catalog.TopCategories(ctx, h.cfg.RefreshTopCategories)
	if err != nil {
		// 类目查询失败时整个任务重试，避免只刷新一半
		return errorutil.RetriableWithDetails("load top categories failed", err.Error())
	}

	// 1. 头部类目逐个刷新
	for _, category := range categories {
		recs := h.svc.RecommendProducts(ctx, nil, category, payload.CategoryLimit)
		h.store(ctx, "category", 0, category, payload.CategoryLimit, recs)
		h.logger.Infof(ctx, "[Refresh] Category refreshed: %s, count: %d", category, len(recs))
	}

	// 2. 全站通用推荐
	general := h.svc.RecommendProducts(ctx, nil, "", payload.GeneralLimit)
	h.store(ctx, "general", 0, "", payload.GeneralLimit, general)

	// 3. 固化最新规则集；挖掘结果为空时退回内置样例规则
	rules := h.svc.MineRules(ctx)
	if len(rules) == 0 {
		rules = recommend.SampleRules()
	}
	h.store(ctx, "rules", 0, "", 0, rules)

	h.logger.Infof(ctx, "[Refresh] Completed: categories=%d, general=%d, rules=%d",
		len(categories), len(general), len(rules))

	return nil
}

// store 写入缓存（尽力而为，失败只记录）
func (h *Handler) store(ctx context.Context, kind string, userID int64, category string, limit int, value interface{}) {
	params := rediscache.Params{
		MinSupport:       h.cfg.MinSupport,
		MinConfidence:    h.cfg.MinConfidence,
		MaxItemsetLength: h.cfg.MaxItemsetLength,
		UserID:           userID,
		Category:         category,
		Limit:            limit,
	}
	if err := h.cache.SetJSON(ctx, params.Key(kind), value); err != nil {
		h.logger.Warnf(ctx, "[Refresh] Cache write failed: kind=%s, category=%s, err=%v", kind, category, err)
	}
}
