// SPDX-License-Identifier: MIT

// Package config loads and validates the daemon configuration from
// environment variables, with an optional strict YAML file underneath.
package config

import (
	"time"
)

// AppConfig is the complete daemon configuration.
type AppConfig struct {
	// Listen is the ops HTTP listen address.
	Listen string `yaml:"listen"`

	// MediaCollection limits scans to one collection; empty scans all.
	MediaCollection string `yaml:"mediaCollection"`
	// ReportsCollection names the validation-report collection.
	ReportsCollection string `yaml:"reportsCollection"`
	// RepairReportsCollection names the repair-report collection.
	RepairReportsCollection string `yaml:"repairReportsCollection"`

	// BatchSize is the number of documents per scan page.
	BatchSize int `yaml:"batchSize"`

	// BaseURL prefixes relative URLs during repair.
	BaseURL string `yaml:"baseUrl"`
	// PlaceholderImageURL substitutes unrecoverable image URLs.
	PlaceholderImageURL string `yaml:"placeholderImageUrl"`
	// PlaceholderVideoURL substitutes unrecoverable video URLs.
	PlaceholderVideoURL string `yaml:"placeholderVideoUrl"`

	// ProbeTimeout caps one HEAD probe.
	ProbeTimeout time.Duration `yaml:"probeTimeout"`
	// MaxRedirects bounds the probe redirect chain.
	MaxRedirects int `yaml:"maxRedirects"`

	// ProcessingInterval is the worker tick period.
	ProcessingInterval time.Duration `yaml:"processingInterval"`
	// MaxConcurrentBatches bounds in-flight messages per tick.
	MaxConcurrentBatches int `yaml:"maxConcurrentBatches"`
	// WorkerEnabled starts the background worker.
	WorkerEnabled bool `yaml:"workerEnabled"`

	// RedisAddr enables the Redis queue when set; empty uses the
	// in-process queue.
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`

	// DBPath is the SQLite store location; empty uses the in-memory store.
	DBPath string `yaml:"dbPath"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Listen:                  ":8080",
		ReportsCollection:       "validation_reports",
		RepairReportsCollection: "repair_reports",
		BatchSize:               50,
		ProbeTimeout:            5 * time.Second,
		MaxRedirects:            5,
		ProcessingInterval:      5 * time.Second,
		MaxConcurrentBatches:    5,
		WorkerEnabled:           true,
	}
}

// FromEnv builds the configuration from MEDIAMEND_* environment variables
// layered over the built-in defaults.
func FromEnv() AppConfig {
	return FromEnvWith(Defaults())
}

// FromEnvWith layers MEDIAMEND_* environment variables over base. A config
// file loaded with LoadFile serves as base, so the environment still wins.
func FromEnvWith(def AppConfig) AppConfig {
	return AppConfig{
		Listen:                  ParseString("MEDIAMEND_LISTEN", def.Listen),
		MediaCollection:         ParseString("MEDIAMEND_MEDIA_COLLECTION", def.MediaCollection),
		ReportsCollection:       ParseString("MEDIAMEND_REPORTS_COLLECTION", def.ReportsCollection),
		RepairReportsCollection: ParseString("MEDIAMEND_REPAIR_REPORTS_COLLECTION", def.RepairReportsCollection),
		BatchSize:               ParseInt("MEDIAMEND_BATCH_SIZE", def.BatchSize),
		BaseURL:                 ParseString("MEDIAMEND_BASE_URL", def.BaseURL),
		PlaceholderImageURL:     ParseString("MEDIAMEND_PLACEHOLDER_IMAGE_URL", def.PlaceholderImageURL),
		PlaceholderVideoURL:     ParseString("MEDIAMEND_PLACEHOLDER_VIDEO_URL", def.PlaceholderVideoURL),
		ProbeTimeout:            ParseDuration("MEDIAMEND_PROBE_TIMEOUT", def.ProbeTimeout),
		MaxRedirects:            ParseInt("MEDIAMEND_MAX_REDIRECTS", def.MaxRedirects),
		ProcessingInterval:      ParseDuration("MEDIAMEND_PROCESSING_INTERVAL", def.ProcessingInterval),
		MaxConcurrentBatches:    ParseInt("MEDIAMEND_MAX_CONCURRENT_BATCHES", def.MaxConcurrentBatches),
		WorkerEnabled:           ParseBool("MEDIAMEND_WORKER_ENABLED", def.WorkerEnabled),
		RedisAddr:               ParseString("MEDIAMEND_REDIS_ADDR", def.RedisAddr),
		RedisPassword:           ParseString("MEDIAMEND_REDIS_PASSWORD", def.RedisPassword),
		RedisDB:                 ParseInt("MEDIAMEND_REDIS_DB", def.RedisDB),
		DBPath:                  ParseString("MEDIAMEND_DB_PATH", def.DBPath),
	}
}
