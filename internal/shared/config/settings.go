package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultSettingsFile = ".tailor/config.yaml"

// settingsFile mirrors the YAML overlay. Pointer fields distinguish "unset" from zero values.
type settingsFile struct {
	Model        *string  `yaml:"model"`
	Temperature  *float64 `yaml:"temperature"`
	Risk         *string  `yaml:"risk"`
	OnError      *string  `yaml:"on_error"`
	OutputDir    *string  `yaml:"output_dir"`
	MaxIteration *int     `yaml:"max_resolve_iterations"`
	LogLevel     *string  `yaml:"log_level"`

	Cache struct {
		Enabled *bool   `yaml:"enabled"`
		Dir     *string `yaml:"dir"`
		TTLDays *int    `yaml:"ttl_days"`
	} `yaml:"cache"`

	Bulk struct {
		Parallel      *int  `yaml:"parallel"`
		FailFast      *bool `yaml:"fail_fast"`
		RetryAttempts *int  `yaml:"retry_attempts"`
		RetryBaseMS   *int  `yaml:"retry_base_delay_ms"`
		MaxIDLength   *int  `yaml:"max_id_length"`
	} `yaml:"bulk"`

	Storage struct {
		Type     *string `yaml:"type"`
		LocalDir *string `yaml:"local_dir"`
		Bucket   *string `yaml:"s3_bucket"`
		Prefix   *string `yaml:"s3_prefix"`
		Region   *string `yaml:"region"`
	} `yaml:"storage"`

	DatabaseURL *string `yaml:"database_url"`
	Port        *string `yaml:"port"`
}

// applySettingsFile overlays values from a YAML file. A missing file is not an error.
func applySettingsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings %s: %w", path, err)
	}

	var s settingsFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse settings %s: %w", path, err)
	}

	setString(&cfg.LLMModel, s.Model)
	setFloat(&cfg.Temperature, s.Temperature)
	setString(&cfg.Risk, s.Risk)
	setString(&cfg.OnError, s.OnError)
	setString(&cfg.OutputDir, s.OutputDir)
	setInt(&cfg.MaxResolveIterations, s.MaxIteration)
	setString(&cfg.LogLevel, s.LogLevel)

	setBool(&cfg.CacheEnabled, s.Cache.Enabled)
	setString(&cfg.CacheDir, s.Cache.Dir)
	if s.Cache.TTLDays != nil {
		cfg.CacheTTL = time.Duration(*s.Cache.TTLDays) * 24 * time.Hour
	}

	setInt(&cfg.Parallel, s.Bulk.Parallel)
	setBool(&cfg.FailFast, s.Bulk.FailFast)
	setInt(&cfg.RetryAttempts, s.Bulk.RetryAttempts)
	if s.Bulk.RetryBaseMS != nil {
		cfg.RetryBaseDelay = time.Duration(*s.Bulk.RetryBaseMS) * time.Millisecond
	}
	setInt(&cfg.MaxIDLength, s.Bulk.MaxIDLength)

	if s.Storage.Type != nil {
		cfg.ObjectStoreType = normalizeStoreType(*s.Storage.Type)
	}
	setString(&cfg.LocalStoreDir, s.Storage.LocalDir)
	setString(&cfg.S3Bucket, s.Storage.Bucket)
	setString(&cfg.S3Prefix, s.Storage.Prefix)
	setString(&cfg.AWSRegion, s.Storage.Region)

	setString(&cfg.DatabaseURL, s.DatabaseURL)
	setString(&cfg.Port, s.Port)

	cfg.SettingsFile = path
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
