package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"shoprec/pkg/errorutil"
	"shoprec/pkg/logger"
)

// Processor 处理器：接收消息，按 action_type 分发到业务 Handler
type Processor struct {
	cfg        *ProcessorConfig
	handlers   map[string]Handler
	source     MessageSource
	logger     logger.Logger
	shutdownCh chan struct{} // 专门的退出信号通道
	wg         sync.WaitGroup
}

// NewProcessor 创建处理器
func NewProcessor(cfg *ProcessorConfig, handlers map[string]Handler, source MessageSource, log logger.Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		handlers:   handlers,
		source:     source,
		logger:     log,
		shutdownCh: make(chan struct{}),
	}
}

// Start 启动处理协程
func (p *Processor) Start(ctx context.Context, inputChan <-chan *Message) error {
	p.logger.Infof(ctx, "[Processor] Starting with %d workers", p.cfg.Concurrency)

	for i := 0; i < p.cfg.Concurrency; i++ {
		workerID := i
		p.wg.Add(1)
		go p.loop(ctx, workerID, inputChan)
	}

	return nil
}

// SignalShutdown 通知 Processor 准备退出（进入 Drain 模式）
func (p *Processor) SignalShutdown() {
	p.logger.Infof(context.Background(), "[Processor] Shutdown signal received")
	close(p.shutdownCh)
}

// Wait 等待所有处理协程退出
func (p *Processor) Wait() {
	p.wg.Wait()
	p.logger.Infof(context.Background(), "[Processor] All workers exited")
}

// loop 处理循环（单个 Worker）
func (p *Processor) loop(ctx context.Context, workerID int, inputChan <-chan *Message) {
	defer p.wg.Done()
	p.logger.Infof(ctx, "[Processor-%d] Started", workerID)

	for {
		select {
		// A. 正常业务处理
		case msg := <-inputChan:
			p.process(ctx, msg, workerID)

		// B. Drain 模式：处理完剩余消息再退出
		case <-p.shutdownCh:
			p.logger.Infof(ctx, "[Processor-%d] Entering DRAIN mode", workerID)
			count := 0
			for {
				select {
				case msg := <-inputChan:
					p.process(ctx, msg, workerID)
					count++
				default:
					// Channel 空了，安全退出
					p.logger.Infof(ctx, "[Processor-%d] Drained %d messages, exiting", workerID, count)
					return
				}
			}
		}
	}
}

// process 处理单个消息
// Ack 策略：成功与不可重试失败均 Ack；可重试失败不 Ack，由 TTR 重投
func (p *Processor) process(ctx context.Context, msg *Message, workerID int) {
	if msg == nil {
		return
	}

	startTime := time.Now()

	procCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	procCtx = context.WithValue(procCtx, "worker_id", workerID)
	procCtx = context.WithValue(procCtx, "message_id", msg.ID)

	p.logger.Infof(procCtx, "[Processor-%d] Processing message: %s", workerID, msg.ID)

	err := p.dispatch(procCtx, msg)

	duration := time.Since(startTime)

	if err == nil {
		p.logger.Infof(procCtx, "[Processor-%d] Message processed: %s, duration: %v", workerID, msg.ID, duration)
		p.ack(procCtx, msg, workerID)
		return
	}

	if errorutil.IsRetryable(err) {
		p.logger.Warnf(procCtx, "[Processor-%d] Message failed (retryable): %s, err: %v, duration: %v",
			workerID, msg.ID, err, duration)
		return
	}

	p.logger.Errorf(procCtx, "[Processor-%d] Message failed (non-retryable): %s, err: %v, duration: %v",
		workerID, msg.ID, err, duration)
	p.ack(procCtx, msg, workerID)
}

// dispatch 解析 Job 并分发到 Handler
func (p *Processor) dispatch(ctx context.Context, msg *Message) (err error) {
	// 业务 Handler 的 panic 不能带崩处理协程
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf(ctx, "[Processor] Panic while processing %s: %v\n%s", msg.ID, r, debug.Stack())
			err = errorutil.NonRetriable(fmt.Sprintf("handler panic: %v", r))
		}
	}()

	var job Job
	if unmarshalErr := json.Unmarshal(msg.Data, &job); unmarshalErr != nil {
		return errorutil.NonRetriable(fmt.Sprintf("unmarshal job failed: %v", unmarshalErr))
	}

	if job.Payload == nil || job.Payload.Data == nil {
		return errorutil.NonRetriable("invalid job structure")
	}

	data := job.Payload.Data
	if data.RequestID == "" {
		data.RequestID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, "request_id", data.RequestID)
	ctx = context.WithValue(ctx, "action_type", data.ActionType)

	handler, ok := p.handlers[data.ActionType]
	if !ok {
		return errorutil.NonRetriable(fmt.Sprintf("unknown action_type: %s", data.ActionType))
	}

	return handler(ctx, data.Data)
}

// ack 确认消息（失败只记录，TTR 到期后重投并由幂等性兜底）
func (p *Processor) ack(ctx context.Context, msg *Message, workerID int) {
	if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
		p.logger.Warnf(ctx, "[Processor-%d] Ack failed: %s, err: %v", workerID, msg.ID, err)
	}
}
