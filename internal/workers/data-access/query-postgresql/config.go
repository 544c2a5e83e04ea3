// internal/workers/data-access/query-postgresql/config.go
package querypostgresql

import (
	"time"

	"nlq-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// MaxRows caps every result set regardless of the query's own LIMIT.
	MaxRows     int
	PreviewRows int
}

func LoadConfig(appConfig *config.Config) *Config {
	cfg := &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		MaxRows:       100,
		PreviewRows:   5,
	}
	if appConfig == nil {
		return cfg
	}
	if appConfig.Translator.MaxLimit > 0 {
		cfg.MaxRows = appConfig.Translator.MaxLimit
	}
	if appConfig.Translator.PreviewRows > 0 {
		cfg.PreviewRows = appConfig.Translator.PreviewRows
	}
	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
		}
	}
	return cfg
}
