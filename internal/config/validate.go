package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate validates the configuration and returns an error if invalid
func Validate(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}

	if err := validateExportConfig(&config.Export); err != nil {
		return fmt.Errorf("export config validation failed: %w", err)
	}

	return nil
}

// validateServerConfig validates the upload endpoint
func validateServerConfig(config *ServerConfig) error {
	if strings.TrimSpace(config.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(config.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", config.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http(s) URL, got: %s", config.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host: %s", config.Endpoint)
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %d", config.Timeout)
	}

	return nil
}

// validateLogConfig validates log configuration
func validateLogConfig(config *LogConfig) error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	level := strings.ToLower(config.Level)
	if !validLevels[level] {
		return fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error, fatal, panic)", config.Level)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}

	format := strings.ToLower(config.Format)
	if !validFormats[format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", config.Format)
	}

	return nil
}

// validateExportConfig validates the download file name and, when archiving
// is on, the R2 credentials
func validateExportConfig(config *ExportConfig) error {
	name := strings.TrimSpace(config.FileName)
	if name == "" {
		return fmt.Errorf("file_name is required")
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("file_name must not contain a directory: %s", config.FileName)
	}

	if !config.R2.Enabled {
		return nil
	}

	if err := validateR2Config(&config.R2); err != nil {
		return fmt.Errorf("r2: %w", err)
	}
	return nil
}

// validateR2Config validates R2 specific configuration
func validateR2Config(config *R2Config) error {
	if strings.TrimSpace(config.AccountID) == "" {
		return fmt.Errorf("account_id is required")
	}

	if strings.TrimSpace(config.AccessKeyID) == "" {
		return fmt.Errorf("access_key_id is required")
	}

	if strings.TrimSpace(config.AccessKeySecret) == "" {
		return fmt.Errorf("access_key_secret is required")
	}

	if strings.TrimSpace(config.BucketName) == "" {
		return fmt.Errorf("bucket_name is required")
	}

	if !isValidBucketName(config.BucketName) {
		return fmt.Errorf("invalid bucket_name format: %s", config.BucketName)
	}

	return nil
}

// isValidBucketName checks if the bucket name follows basic S3 naming rules
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}

	if !isAlphaNum(name[0]) || !isAlphaNum(name[len(name)-1]) {
		return false
	}

	for i, char := range name {
		if !isAlphaNum(byte(char)) && char != '-' && char != '.' {
			return false
		}

		if i > 0 {
			prev := name[i-1]
			if char == '.' && (prev == '.' || prev == '-') {
				return false
			}
			if char == '-' && prev == '.' {
				return false
			}
		}
	}

	return true
}

// isAlphaNum checks if a byte is alphanumeric
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
