package app

import (
	"fmt"
	"strings"

	"pushfan/internal/config"
	"pushfan/internal/store"
)

// Validate rejects configs the app could not start (or hot-reload) with.
func Validate(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Source.Driver)) {
	case "", "nats":
	default:
		return fmt.Errorf("source.driver: unknown driver %q", cfg.Source.Driver)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Registry.Driver)) {
	case "", "static":
	case "sqlite", "sqlite3":
		if strings.TrimSpace(cfg.Registry.Path) == "" {
			return fmt.Errorf("registry.path: required for sqlite driver")
		}
	default:
		return fmt.Errorf("registry.driver: unknown driver %q", cfg.Registry.Driver)
	}
	if _, err := config.ParseDurationField("registry.busy_timeout", cfg.Registry.BusyTimeout); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Delivery.Driver)) {
	case "", "fcm", "dryrun":
	default:
		return fmt.Errorf("delivery.driver: unknown driver %q", cfg.Delivery.Driver)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Delivery.CollapseKey)) {
	case "", "timestamp", "uuid", "category":
	default:
		return fmt.Errorf("delivery.collapse_key: unknown strategy %q", cfg.Delivery.CollapseKey)
	}

	if _, err := config.ParseDurationField("runner.retry_base", cfg.Runner.RetryBase); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("runner.retry_max_delay", cfg.Runner.RetryMaxDelay); err != nil {
		return err
	}
	if cfg.Runner.RetryMax < 0 {
		return fmt.Errorf("runner.retry_max: must be >= 0")
	}

	return nil
}

func registryUser(u config.StaticUser) store.User {
	return store.User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PushToken:   u.PushToken,
	}
}
