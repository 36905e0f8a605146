// Package stats aggregates dispatch outcomes for operational visibility.
//
// Counters are fed from the event bus and flushed to the log on a cron
// schedule. Nothing here persists; the document store remains the only
// system of record.
package stats

import (
	"context"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"pushfan/internal/eventbus"
	"pushfan/internal/runtime/supervisor"
	logx "pushfan/pkg/logx"
)

type Config struct {
	Enabled bool
	// FlushSpec is a cron spec for summary logging (default "@every 1m").
	FlushSpec string
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Reconciled   uint64 `json:"reconciled"`
	Skipped      uint64 `json:"skipped"`
	Failed       uint64 `json:"failed"`
	TokensSent   uint64 `json:"tokens_sent"`
	TokensFailed uint64 `json:"tokens_failed"`
}

type Service struct {
	mu    sync.Mutex
	cur   Snapshot
	total Snapshot

	bus  eventbus.Bus
	cron *cron.Cron
	log  logx.Logger

	unsub func()
}

func New(cfg Config, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{bus: bus, log: log}

	spec := strings.TrimSpace(cfg.FlushSpec)
	if spec == "" {
		spec = "@every 1m"
	}
	s.cron = cron.New()
	// Spec errors surface at startup, not silently at flush time.
	if _, err := s.cron.AddFunc(spec, s.flush); err != nil {
		log.Warn("invalid stats flush spec, using @every 1m", logx.String("spec", spec), logx.Err(err))
		_, _ = s.cron.AddFunc("@every 1m", s.flush)
	}
	return s
}

// Start subscribes to the bus and begins periodic flushing.
func (s *Service) Start(sup *supervisor.Supervisor) {
	events, unsub := s.bus.Subscribe(64)
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()

	sup.Go("stats.collect", func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				s.record(e)
			}
		}
	})
	s.cron.Start()
}

func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	// Final summary on the way out.
	s.flush()
}

func (s *Service) record(e eventbus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch e.Type {
	case eventbus.TypeReconciled:
		s.cur.Reconciled++
		s.cur.TokensSent += uint64(e.Sent)
		s.cur.TokensFailed += uint64(e.Failed)
	case eventbus.TypeSkipped:
		s.cur.Skipped++
	case eventbus.TypeFailed:
		s.cur.Failed++
	}
}

// Totals returns cumulative counters since start.
func (s *Service) Totals() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Reconciled:   s.total.Reconciled + s.cur.Reconciled,
		Skipped:      s.total.Skipped + s.cur.Skipped,
		Failed:       s.total.Failed + s.cur.Failed,
		TokensSent:   s.total.TokensSent + s.cur.TokensSent,
		TokensFailed: s.total.TokensFailed + s.cur.TokensFailed,
	}
}

// flush logs the window delta and folds it into the running totals.
// Quiet windows stay quiet.
func (s *Service) flush() {
	s.mu.Lock()
	win := s.cur
	s.total.Reconciled += win.Reconciled
	s.total.Skipped += win.Skipped
	s.total.Failed += win.Failed
	s.total.TokensSent += win.TokensSent
	s.total.TokensFailed += win.TokensFailed
	s.cur = Snapshot{}
	s.mu.Unlock()

	if win == (Snapshot{}) {
		return
	}
	s.log.Info("dispatch summary",
		logx.Any("window", win),
		logx.Any("total", s.Totals()),
	)
}
