// Package grpc 交易生命周期服务的 gRPC 健康检查与反射
package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/tradelifecycle/pkg/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName 健康检查中登记的服务名
const ServiceName = "tradelifecycle.v1.TradeLifecycle"

// Pinger 依赖探活，由数据库实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker 周期性探测依赖并更新健康状态
type HealthChecker struct {
	server  *health.Server
	pingers map[string]Pinger
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthChecker 创建健康检查器，初始状态为 NOT_SERVING
func NewHealthChecker(logger *slog.Logger, pingers map[string]Pinger) *HealthChecker {
	if logger == nil {
		logger = slog.Default()
	}
	s := health.NewServer()
	s.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthChecker{server: s, pingers: pingers, timeout: 2 * time.Second, logger: logger}
}

// Server 返回底层健康服务
func (h *HealthChecker) Server() *health.Server { return h.server }

// Check 探测一次全部依赖并更新状态，返回是否健康
func (h *HealthChecker) Check(ctx context.Context) bool {
	healthy := true
	for name, p := range h.pingers {
		pctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := p.Ping(pctx)
		cancel()
		if err != nil {
			healthy = false
			h.logger.WarnContext(ctx, "dependency unhealthy", "dependency", name, "error", err)
		}
	}
	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return healthy
}

// Run 按 interval 探测，ctx 取消后置为 NOT_SERVING 并返回
func (h *HealthChecker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// NewServer 创建 gRPC 服务器，注册健康检查与反射
func NewServer(checker *HealthChecker, maxStreams uint32) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCLoggingInterceptor(),
		),
	}
	if maxStreams > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(maxStreams))
	}
	s := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(s, checker.Server())
	reflection.Register(s)
	return s
}
