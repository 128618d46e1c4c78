// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func Validate(cfg AppConfig) error {
	var problems []string

	if cfg.BatchSize < 1 {
		problems = append(problems, fmt.Sprintf("batchSize must be >= 1, got %d", cfg.BatchSize))
	}
	if cfg.MaxRedirects < 0 {
		problems = append(problems, fmt.Sprintf("maxRedirects must be >= 0, got %d", cfg.MaxRedirects))
	}
	if cfg.ProbeTimeout <= 0 {
		problems = append(problems, "probeTimeout must be positive")
	}
	if cfg.ProcessingInterval <= 0 {
		problems = append(problems, "processingInterval must be positive")
	}
	if cfg.MaxConcurrentBatches < 1 {
		problems = append(problems, fmt.Sprintf("maxConcurrentBatches must be >= 1, got %d", cfg.MaxConcurrentBatches))
	}
	if cfg.ReportsCollection == "" {
		problems = append(problems, "reportsCollection must not be empty")
	}
	if cfg.RepairReportsCollection == "" {
		problems = append(problems, "repairReportsCollection must not be empty")
	}
	if cfg.ReportsCollection != "" && cfg.ReportsCollection == cfg.RepairReportsCollection {
		problems = append(problems, "reportsCollection and repairReportsCollection must differ")
	}

	for _, check := range []struct {
		name  string
		value string
	}{
		{"baseUrl", cfg.BaseURL},
		{"placeholderImageUrl", cfg.PlaceholderImageURL},
		{"placeholderVideoUrl", cfg.PlaceholderVideoURL},
	} {
		if check.value == "" {
			continue
		}
		if err := validateHTTPURL(check.name, check.value); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateHTTPURL(name, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %v", name, value, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: unsupported scheme %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: URL %q is missing host", name, value)
	}
	return nil
}
