package config

import (
	"reflect"
	"strings"

	logx "pushfan/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging. Credentials paths are reported as
// set/unset, never by value.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Source, newCfg.Source) {
		changed = append(changed, "source")
		attrs = append(attrs,
			logx.String("source.driver", newCfg.Source.Driver),
			logx.String("source.subject_prefix", newCfg.Source.SubjectPrefix),
		)
	}

	if !reflect.DeepEqual(oldCfg.Registry, newCfg.Registry) {
		changed = append(changed, "registry")
		attrs = append(attrs,
			logx.String("registry.driver", newCfg.Registry.Driver),
			logx.Int("registry.lookup_concurrency", newCfg.Registry.LookupConcurrency),
		)
	}

	if !reflect.DeepEqual(oldCfg.Delivery, newCfg.Delivery) {
		changed = append(changed, "delivery")
		attrs = append(attrs,
			logx.String("delivery.driver", newCfg.Delivery.Driver),
			logx.Bool("delivery.credentials_set", strings.TrimSpace(newCfg.Delivery.CredentialsFile) != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Runner, newCfg.Runner) {
		changed = append(changed, "runner")
		attrs = append(attrs,
			logx.Int("runner.workers", newCfg.Runner.Workers),
			logx.Int("runner.retry_max", newCfg.Runner.RetryMax),
		)
	}

	if !reflect.DeepEqual(oldCfg.Stats, newCfg.Stats) {
		changed = append(changed, "stats")
	}

	return changed, attrs
}
