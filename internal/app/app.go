// Package app wires the dispatcher together: config, logging, registry,
// delivery gateway, event source, runner, and stats.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pushfan/internal/config"
	"pushfan/internal/dispatch"
	"pushfan/internal/eventbus"
	"pushfan/internal/payload"
	"pushfan/internal/push"
	"pushfan/internal/push/fcm"
	"pushfan/internal/registry"
	"pushfan/internal/runner"
	"pushfan/internal/runtime/supervisor"
	"pushfan/internal/source"
	"pushfan/internal/stats"
	logx "pushfan/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	reader registry.Reader
	src    source.Source
	run    *runner.Runner
	stats  *stats.Service

	cfgSub chan *config.Config
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return Validate(cfg)
	})

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logs,
		bus:     eventbus.New(),
	}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgm.Get()
	if cfg == nil {
		return errors.New("app: no config loaded")
	}

	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(false),
	)

	// Registry + resolver.
	regCfg, err := registryConfig(cfg.Registry)
	if err != nil {
		return err
	}
	reader, err := registry.Open(regCfg, a.log.With(logx.String("comp", "registry")))
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	a.reader = reader
	resolver := registry.NewResolver(reader, regCfg, a.log.With(logx.String("comp", "resolver")))

	// Delivery gateway.
	sender, err := a.openSender(ctx, cfg.Delivery)
	if err != nil {
		return fmt.Errorf("open delivery gateway: %w", err)
	}

	// Dispatchers.
	broadcast := dispatch.NewBroadcast(resolver, sender, collapseKey(cfg.Delivery.CollapseKey), a.log.With(logx.String("comp", "broadcast")))
	chat := dispatch.NewChatDelta(resolver, sender, a.log.With(logx.String("comp", "chat")))

	// Runner.
	runCfg, err := runnerConfig(cfg.Runner)
	if err != nil {
		return err
	}
	a.run = runner.New(runCfg, broadcast, chat, a.bus, a.log.With(logx.String("comp", "runner")))

	// Event source.
	src, err := a.openSource(cfg.Source)
	if err != nil {
		return fmt.Errorf("open event source: %w", err)
	}
	a.src = src
	a.run.Start(a.sup, src.Events())

	// Stats.
	if cfg.Stats == nil || cfg.Stats.Enabled {
		stCfg := stats.Config{}
		if cfg.Stats != nil {
			stCfg = stats.Config{Enabled: true, FlushSpec: cfg.Stats.FlushSpec}
		}
		a.stats = stats.New(stCfg, a.bus, a.log.With(logx.String("comp", "stats")))
		a.stats.Start(a.sup)
	}

	// Config hot reload: logging changes apply live; structural sections
	// (source, registry, delivery, runner) need a restart and are logged
	// as such.
	a.cfgSub = a.cfgm.Subscribe(2)
	sub := a.cfgSub
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go("config.apply", func(ctx context.Context) error {
		prev := cfg
		for {
			select {
			case <-ctx.Done():
				return nil
			case next, ok := <-sub:
				if !ok || next == nil {
					return nil
				}
				changed, attrs := config.SummarizeChange(prev, next)
				if len(changed) > 0 {
					a.log.Info("config changed", append(attrs, logx.Strings("sections", changed))...)
				}
				a.logs.Apply(logx.Config{
					Level:   next.Logging.Level,
					Console: next.Logging.Console,
					File: logx.FileConfig{
						Enabled: next.Logging.File.Enabled,
						Path:    next.Logging.File.Path,
					},
				})
				for _, section := range changed {
					if section != "logging" && section != "stats" {
						a.log.Warn("config section needs restart to apply", logx.String("section", section))
					}
				}
				prev = next
			}
		}
	})

	a.log.Info("dispatcher started",
		logx.String("source", driverOrDefault(cfg.Source.Driver, "nats")),
		logx.String("registry", driverOrDefault(cfg.Registry.Driver, "static")),
		logx.String("delivery", driverOrDefault(cfg.Delivery.Driver, "fcm")),
	)
	return nil
}

// Stop shuts the app down: stop intake, let in-flight invocations finish
// (bounded by ctx), then release resources.
func (a *App) Stop(ctx context.Context) error {
	if a.src != nil {
		a.src.Close()
	}
	if a.sup != nil {
		a.sup.Cancel()
		_ = a.sup.Wait(ctx)
	}
	if a.stats != nil {
		a.stats.Stop()
	}
	if a.cfgSub != nil {
		a.cfgm.Unsubscribe(a.cfgSub)
		a.cfgSub = nil
	}
	if a.reader != nil {
		_ = a.reader.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func (a *App) openSender(ctx context.Context, cfg config.DeliveryConfig) (push.Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "fcm":
		return fcm.New(ctx, fcm.Config{
			CredentialsFile: cfg.CredentialsFile,
			ProjectID:       cfg.ProjectID,
		})
	case "dryrun":
		return push.DryRun{Log: a.log.With(logx.String("comp", "dryrun"))}, nil
	default:
		return nil, errors.New("unknown delivery driver: " + cfg.Driver)
	}
}

func (a *App) openSource(cfg config.SourceConfig) (source.Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "nats":
		return source.ConnectNATS(source.Config{
			URL:           cfg.URL,
			SubjectPrefix: cfg.SubjectPrefix,
			Buffer:        cfg.Buffer,
		}, a.log.With(logx.String("comp", "source")))
	default:
		return nil, errors.New("unknown source driver: " + cfg.Driver)
	}
}

func registryConfig(cfg config.RegistryConfig) (registry.Config, error) {
	busy, err := config.ParseDurationField("registry.busy_timeout", cfg.BusyTimeout)
	if err != nil {
		return registry.Config{}, err
	}
	out := registry.Config{
		Driver:            cfg.Driver,
		Path:              cfg.Path,
		BusyTimeout:       busy,
		LookupConcurrency: cfg.LookupConcurrency,
		LookupRatePerSec:  cfg.LookupRatePerSec,
	}
	for _, u := range cfg.Users {
		out.Users = append(out.Users, registryUser(u))
	}
	return out, nil
}

func runnerConfig(cfg config.RunnerConfig) (runner.Config, error) {
	base, err := config.ParseDurationOrDefault("runner.retry_base", cfg.RetryBase, 500*time.Millisecond)
	if err != nil {
		return runner.Config{}, err
	}
	maxDelay, err := config.ParseDurationOrDefault("runner.retry_max_delay", cfg.RetryMaxDelay, 10*time.Second)
	if err != nil {
		return runner.Config{}, err
	}
	return runner.Config{
		Workers:       cfg.Workers,
		RetryMax:      cfg.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
	}, nil
}

func collapseKey(name string) payload.CollapseKeyFunc {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "timestamp":
		return payload.TimestampCollapseKey
	case "uuid":
		return payload.UUIDCollapseKey
	case "category":
		return payload.CategoryCollapseKey
	default:
		return payload.TimestampCollapseKey
	}
}

func driverOrDefault(driver, def string) string {
	if strings.TrimSpace(driver) == "" {
		return def
	}
	return driver
}
