package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Upload UploadConfig `mapstructure:"upload"`
	Export ExportConfig `mapstructure:"export"`
	UI     UIConfig     `mapstructure:"ui"`
}

// ServerConfig holds the backend the form submits to
type ServerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Timeout  int    `mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// UploadConfig holds upload-specific configuration
type UploadConfig struct {
	ShowProgress bool `mapstructure:"show_progress"`
	// Files smaller than this are sent without a progress bar.
	ProgressThreshold int64 `mapstructure:"progress_threshold"`
}

// ExportConfig holds settings for downloading the result
type ExportConfig struct {
	FileName  string   `mapstructure:"file_name"`
	Directory string   `mapstructure:"directory"`
	R2        R2Config `mapstructure:"r2"`
}

// R2Config holds the optional R2 bucket results are archived to
type R2Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
}

// UIConfig holds user interface configuration
type UIConfig struct {
	RememberFiles bool `mapstructure:"remember_files"`
}

// Load loads configuration from multiple sources with priority:
// 1. Command line flags (highest)
// 2. Environment variables
// 3. Configuration file
// 4. Defaults (lowest)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("UPLOADFORM")
	v.AutomaticEnv()

	v.BindEnv("server.endpoint", "UPLOADFORM_ENDPOINT")
	v.BindEnv("server.timeout", "UPLOADFORM_TIMEOUT")
	v.BindEnv("log.level", "UPLOADFORM_LOG_LEVEL")
	v.BindEnv("log.format", "UPLOADFORM_LOG_FORMAT")
	v.BindEnv("log.file", "UPLOADFORM_LOG_FILE")
	v.BindEnv("upload.show_progress", "UPLOADFORM_UPLOAD_SHOW_PROGRESS")
	v.BindEnv("export.file_name", "UPLOADFORM_EXPORT_FILE_NAME")
	v.BindEnv("export.directory", "UPLOADFORM_EXPORT_DIRECTORY")
	v.BindEnv("export.r2.enabled", "UPLOADFORM_R2_ENABLED")
	v.BindEnv("export.r2.account_id", "UPLOADFORM_R2_ACCOUNT_ID")
	v.BindEnv("export.r2.access_key_id", "UPLOADFORM_R2_ACCESS_KEY_ID")
	v.BindEnv("export.r2.access_key_secret", "UPLOADFORM_R2_ACCESS_KEY_SECRET")
	v.BindEnv("export.r2.bucket_name", "UPLOADFORM_R2_BUCKET_NAME")
	v.BindEnv("export.r2.prefix", "UPLOADFORM_R2_PREFIX")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.upload-form")
		v.AddConfigPath("/etc/upload-form/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error - we can use defaults and env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.endpoint", "http://localhost:8000/upload")
	v.SetDefault("server.timeout", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", filepath.Join(os.TempDir(), "upload-form", "app.log"))

	v.SetDefault("upload.show_progress", true)
	v.SetDefault("upload.progress_threshold", 100*1024)

	v.SetDefault("export.file_name", "merged_data.txt")
	v.SetDefault("export.directory", ".")
	v.SetDefault("export.r2.enabled", false)
	v.SetDefault("export.r2.region", "auto")
	v.SetDefault("export.r2.prefix", "results/")

	v.SetDefault("ui.remember_files", true)
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.toml"
	}
	return filepath.Join(homeDir, ".upload-form", "config.toml")
}
