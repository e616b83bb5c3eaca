package worker

import (
	"context"
	"errors"
	"time"

	"github.com/primefix-storefront/internal/config"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/queue"
	"github.com/primefix-storefront/internal/service"

	"github.com/hibiken/asynq"
)

const defaultPurgeInterval = time.Hour

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动消费者并阻塞到 ctx 结束，信号由 Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// SessionPurger 过期会话清理器
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

var _ SessionPurger = (*service.SessionService)(nil)

// JanitorService 定时清理过期购物会话
type JanitorService struct {
	name     string
	sessions SessionPurger
	interval time.Duration
	done     chan struct{}
}

// NewJanitorService 创建会话清理服务，purgeMinutes <= 0 时按小时清理
func NewJanitorService(sessions SessionPurger, purgeMinutes int) (*JanitorService, error) {
	if sessions == nil {
		return nil, errors.New("session service is nil")
	}
	interval := time.Duration(purgeMinutes) * time.Minute
	if interval <= 0 {
		interval = defaultPurgeInterval
	}
	return &JanitorService{
		name:     "session-janitor",
		sessions: sessions,
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

// Name 服务名称
func (s *JanitorService) Name() string {
	if s == nil || s.name == "" {
		return "session-janitor"
	}
	return s.name
}

// Start 立即清理一次，之后按间隔清理直到 ctx 结束
func (s *JanitorService) Start(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return errors.New("janitor not initialized")
	}
	defer close(s.done)
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop 等待当前清理结束
func (s *JanitorService) Stop(ctx context.Context) error {
	if s == nil || s.done == nil {
		return nil
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *JanitorService) runOnce(ctx context.Context) {
	deleted, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Warnw("worker_session_purge_failed", "deleted", deleted, "error", err)
		return
	}
	if deleted > 0 {
		logger.Infow("worker_session_purged", "deleted", deleted)
	}
}
