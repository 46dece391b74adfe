package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"gorm.io/gorm"

	"shoprec/internal/recommend"
	"shoprec/internal/refresh"
	"shoprec/pkg/config"
	"shoprec/pkg/infra/mysql"
	rediscache "shoprec/pkg/infra/redis"
	"shoprec/pkg/lmstfy"
	"shoprec/pkg/logger"
)

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance Manager 实例
type ManagerInstance struct {
	ctx          context.Context
	cfg          *config.Config
	db           *gorm.DB
	cache        *rediscache.Cache
	lmstfyClient *lmstfy.Client
	handlers     map[string]Handler
	workers      []Worker
	closing      *atomic.Bool
	shutdownCh   chan struct{}
	wg           sync.WaitGroup
	logger       logger.Logger
}

// queueSource 将 lmstfy 客户端适配为框架消息源
type queueSource struct {
	cli *lmstfy.Client
}

func (q *queueSource) Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error) {
	msg, err := q.cli.Consume(queue, timeout, ttr)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	return &Message{
		ID:    msg.ID,
		Queue: msg.Queue,
		Data:  msg.Data,
	}, nil
}

func (q *queueSource) Ack(queue string, jobID string) error {
	return q.cli.Ack(queue, jobID)
}

// NewManagerInstance 创建 Manager，完成全部依赖装配
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	ctx := context.Background()

	// 初始化 lmstfy 客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create lmstfy client: %w", err)
	}

	// 初始化 MySQL
	db, err := mysql.Open(cfg.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	// 初始化推荐缓存
	cache, err := rediscache.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Engine.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}

	// 装配推荐服务与业务 Handler
	catalog := mysql.NewCatalogDAO(db)
	behavior := mysql.NewBehaviorDAO(db)
	svc := recommend.NewService(catalog, behavior, cfg.Engine, log)

	refreshHandler := refresh.NewHandler(svc, catalog, cache, cfg.Engine, log)

	handlers := map[string]Handler{
		refresh.ActionType: refreshHandler.Handle,
	}

	log.Infof(ctx, "[Manager] Initialized with %d handlers", len(handlers))

	return &ManagerInstance{
		ctx:          ctx,
		cfg:          cfg,
		db:           db,
		cache:        cache,
		lmstfyClient: lmstfyClient,
		handlers:     handlers,
		closing:      atomic.NewBool(false),
		shutdownCh:   make(chan struct{}),
		workers:      make([]Worker, 0),
		logger:       log,
	}, nil
}

// Start 启动 Manager
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	// 1. 加载所有 Worker
	if err := m.loadWorkers(); err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.workers))

	// 2. 启动所有 Worker（每个 Worker 在独立 goroutine）
	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 3. 阻塞等待退出信号
	<-m.shutdownCh

	return nil
}

// Shutdown 优雅退出
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	// 原子操作，保证并发安全
	if m.closing.CAS(false, true) {
		// 1. 所有 Worker 安全退出
		for _, worker := range m.workers {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		// 2. 等待所有 Worker 退出
		m.wg.Wait()

		// 3. 释放外部连接
		if err := m.cache.Close(); err != nil {
			m.logger.Warnf(m.ctx, "[Manager] Close redis failed: %v", err)
		}
		if err := mysql.Close(m.db); err != nil {
			m.logger.Warnf(m.ctx, "[Manager] Close mysql failed: %v", err)
		}

		// 4. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// loadWorkers 加载所有 Worker
func (m *ManagerInstance) loadWorkers() error {
	source := &queueSource{cli: m.lmstfyClient}

	for _, workerCfg := range m.cfg.Workers {
		subCfg := &SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		procCfg := &ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		worker, err := NewWorkerInstance(
			m.ctx,
			workerCfg.Name,
			subCfg,
			procCfg,
			source,
			m.handlers,
			m.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.workers = append(m.workers, worker)
	}

	return nil
}
