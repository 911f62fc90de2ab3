package dashboard

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Flusher periodically writes every session whose dashboard configuration
// has unsaved changes, so a crashed browser tab or dropped connection loses
// at most one flush interval of edits.
type Flusher struct {
	service   DashboardService
	schedule  string
	log       *zap.Logger
	scheduler *cron.Cron
}

func NewFlusher(service DashboardService, schedule string, log *zap.Logger) *Flusher {
	return &Flusher{
		service:  service,
		schedule: schedule,
		log:      log,
	}
}

func (f *Flusher) Start() error {
	f.scheduler = cron.New()
	_, err := f.scheduler.AddFunc(f.schedule, func() {
		flushed := f.service.FlushDirty(context.Background())
		if flushed > 0 {
			f.log.Info("flushed dirty dashboard sessions", zap.Int("count", flushed))
		}
	})
	if err != nil {
		return err
	}
	f.scheduler.Start()
	f.log.Info("dashboard flusher started", zap.String("schedule", f.schedule))
	return nil
}

func (f *Flusher) Stop() {
	if f.scheduler != nil {
		<-f.scheduler.Stop().Done()
	}
}
