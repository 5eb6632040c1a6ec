package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/upload", cfg.Server.Endpoint)
	assert.Equal(t, 120, cfg.Server.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Upload.ShowProgress)
	assert.Equal(t, "merged_data.txt", cfg.Export.FileName)
	assert.False(t, cfg.Export.R2.Enabled)
	assert.Equal(t, "auto", cfg.Export.R2.Region)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
endpoint = "https://risk.example.com/upload"
timeout = 15

[export]
file_name = "report.txt"
directory = "/tmp/exports"

[export.r2]
enabled = true
account_id = "acc"
access_key_id = "key"
access_key_secret = "secret"
bucket_name = "risk-results"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://risk.example.com/upload", cfg.Server.Endpoint)
	assert.Equal(t, 15, cfg.Server.Timeout)
	assert.Equal(t, "report.txt", cfg.Export.FileName)
	assert.Equal(t, "/tmp/exports", cfg.Export.Directory)
	assert.True(t, cfg.Export.R2.Enabled)
	assert.Equal(t, "risk-results", cfg.Export.R2.BucketName)
	assert.Equal(t, "results/", cfg.Export.R2.Prefix)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
endpoint = "https://risk.example.com/upload"
`)
	t.Setenv("UPLOADFORM_ENDPOINT", "http://10.0.0.5:8000/upload")
	t.Setenv("UPLOADFORM_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8000/upload", cfg.Server.Endpoint)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidConfig(t *testing.T) {
	_, err := Load(writeConfig(t, `
[server]
endpoint = "ftp://example.com/upload"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http(s)")
}

func TestGetDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".upload-form", "config.toml"), GetDefaultConfigPath())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Endpoint: "http://localhost:8000/upload", Timeout: 30},
			Log:    LogConfig{Level: "info", Format: "text"},
			Export: ExportConfig{FileName: "merged_data.txt"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty endpoint", func(c *Config) { c.Server.Endpoint = " " }, "endpoint is required"},
		{"no host", func(c *Config) { c.Server.Endpoint = "http:///upload" }, "no host"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "timeout must be positive"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"empty file name", func(c *Config) { c.Export.FileName = "" }, "file_name is required"},
		{"file name with dir", func(c *Config) { c.Export.FileName = "out/merged.txt" }, "must not contain a directory"},
		{"r2 disabled skips credentials", func(c *Config) { c.Export.R2.BucketName = "x" }, ""},
		{"r2 enabled needs account", func(c *Config) { c.Export.R2.Enabled = true }, "account_id is required"},
		{"r2 bad bucket", func(c *Config) {
			c.Export.R2 = R2Config{Enabled: true, AccountID: "a", AccessKeyID: "k", AccessKeySecret: "s", BucketName: "-bad"}
		}, "invalid bucket_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUserData_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "user.data")

	ud := LoadUserDataFrom(path)
	assert.Empty(t, ud.LastTextFile)

	require.NoError(t, ud.SetLastTextFile("/data/test.txt"))
	require.NoError(t, ud.SetLastExcelFile("/data/test.xlsx"))

	reloaded := LoadUserDataFrom(path)
	assert.Equal(t, "/data/test.txt", reloaded.LastTextFile)
	assert.Equal(t, "/data/test.xlsx", reloaded.LastExcelFile)
	assert.False(t, reloaded.CreatedAt.IsZero())
}

func TestUserData_CorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.data")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	ud := LoadUserDataFrom(path)
	assert.Empty(t, ud.LastTextFile)
	require.NoError(t, ud.SetLastTextFile("a.txt"))
	assert.Equal(t, "a.txt", LoadUserDataFrom(path).LastTextFile)
}
