package app

import (
	"context"
	"time"

	"github.com/eduline/liveclass/internal/service"
	"go.uber.org/zap"
)

// Janitor управляет фоновыми задачами обслуживания занятий
type Janitor struct {
	sessionService *service.SessionService
	staleAfter     time.Duration
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewJanitor создаёт новый фоновый обработчик.
// staleAfter — через сколько после планового старта "висящее" живое занятие
// принудительно завершается; 0 отключает задачу.
func NewJanitor(sessionService *service.SessionService, staleAfter time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		sessionService: sessionService,
		staleAfter:     staleAfter,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (j *Janitor) Start(ctx context.Context) {
	if j.staleAfter <= 0 {
		j.logger.Info("Stale session cleanup disabled")
		return
	}

	j.logger.Info("Starting session janitor", zap.Duration("stale_after", j.staleAfter))
	go j.runStaleSessionTask(ctx)
}

// Stop останавливает фоновые задачи
func (j *Janitor) Stop() {
	j.logger.Info("Stopping session janitor")
	close(j.stopChan)
}

// runStaleSessionTask периодически завершает брошенные живые занятия
func (j *Janitor) runStaleSessionTask(ctx context.Context) {
	// Первый проход сразу при старте
	j.sweep(ctx)

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-j.stopChan:
			j.logger.Info("Stale session task stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Stale session task cancelled")
			return
		}
	}
}

// sweep завершает живые занятия, плановый старт которых был слишком давно
func (j *Janitor) sweep(ctx context.Context) {
	ended, err := j.sessionService.EndStaleSessions(ctx, j.staleAfter)
	if err != nil {
		j.logger.Error("Failed to end stale sessions", zap.Error(err))
		return
	}

	if ended > 0 {
		j.logger.Info("Stale sessions ended", zap.Int64("count", ended))
	}
}
