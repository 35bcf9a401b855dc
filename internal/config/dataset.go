package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DatasetPolicy groups the acquisition tunables operators adjust without a
// redeploy: the freshness horizon, the persist chunk size, and the size of
// the synthetic fallback set.
type DatasetPolicy struct {
	FreshnessHorizon time.Duration `mapstructure:"freshnessHorizon"`
	ChunkSize        int           `mapstructure:"chunkSize"`
	SyntheticCount   int           `mapstructure:"syntheticCount"`
}

// DatasetPolicyHolder serves the current policy and hot-reloads it when the
// backing file changes.
type DatasetPolicyHolder struct {
	current atomic.Value // holds DatasetPolicy
}

// NewDatasetPolicyHolder loads dataset.yml if present, otherwise falls back
// to the environment-derived defaults.
func NewDatasetPolicyHolder(cfg Config) (*DatasetPolicyHolder, error) {
	defaults := DatasetPolicy{
		FreshnessHorizon: cfg.CacheMaxAge,
		ChunkSize:        cfg.ChunkSize,
		SyntheticCount:   cfg.SyntheticCount,
	}

	v := viper.New()
	v.SetConfigName("dataset")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/atlas")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("dataset.freshnessHorizon", defaults.FreshnessHorizon)
	v.SetDefault("dataset.chunkSize", defaults.ChunkSize)
	v.SetDefault("dataset.syntheticCount", defaults.SyntheticCount)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var policy DatasetPolicy
	if err := v.UnmarshalKey("dataset", &policy); err != nil {
		return nil, err
	}
	policy = policy.withDefaults(defaults)
	if err := validateDatasetPolicy(policy); err != nil {
		return nil, err
	}

	holder := &DatasetPolicyHolder{}
	holder.current.Store(policy)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated DatasetPolicy
			if err := v.UnmarshalKey("dataset", &updated); err != nil {
				log.Printf("[dataset-config] reload failed: %v", err)
				return
			}
			updated = updated.withDefaults(defaults)
			if err := validateDatasetPolicy(updated); err != nil {
				log.Printf("[dataset-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
		})
	}

	return holder, nil
}

// NewStaticDatasetPolicyHolder pins a policy without file watching; used by
// tests and one-shot tooling.
func NewStaticDatasetPolicyHolder(policy DatasetPolicy) *DatasetPolicyHolder {
	holder := &DatasetPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

// Current returns the active policy.
func (h *DatasetPolicyHolder) Current() DatasetPolicy {
	return h.current.Load().(DatasetPolicy)
}

func (p DatasetPolicy) withDefaults(defaults DatasetPolicy) DatasetPolicy {
	if p.FreshnessHorizon <= 0 {
		p.FreshnessHorizon = defaults.FreshnessHorizon
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = defaults.ChunkSize
	}
	if p.SyntheticCount <= 0 {
		p.SyntheticCount = defaults.SyntheticCount
	}
	return p
}

func validateDatasetPolicy(p DatasetPolicy) error {
	if p.FreshnessHorizon < time.Minute {
		return errors.New("dataset freshness horizon below one minute")
	}
	if p.ChunkSize < 1 {
		return errors.New("dataset chunk size must be positive")
	}
	if p.SyntheticCount < 1 {
		return errors.New("dataset synthetic count must be positive")
	}
	return nil
}
