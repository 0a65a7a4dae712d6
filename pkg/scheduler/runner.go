// Package scheduler 封装 robfig/cron，为定时任务注入基础 context 并防止任务重入
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Runner 定时任务执行器
type Runner struct {
	cron    *cron.Cron
	logger  *slog.Logger
	baseCtx context.Context
}

// New 创建执行器，同一任务上一轮未结束时跳过本轮，任务 panic 会被恢复并记录
func New(logger *slog.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add 注册任务，spec 支持秒级表达式与 @every 描述符
func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		r.logger.Debug("cron job triggered", "job", name)
		job(r.baseCtx)
	})
}

// Start 启动调度
func (r *Runner) Start() {
	r.logger.Info("cron started", "entries", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop 停止调度并等待运行中的任务结束
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
