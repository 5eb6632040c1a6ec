package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/upload-form/internal/config"
	"github.com/HaiFongPan/upload-form/internal/r2"
	"github.com/HaiFongPan/upload-form/internal/transport"
	"github.com/HaiFongPan/upload-form/internal/tui"
)

var (
	cfgFile      string
	verbose      bool
	quiet        bool
	globalConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "upload-form",
	Short: "Submit a text document or spreadsheet for analysis",
	Long: `Upload-form sends one text file or one Excel workbook to the analysis
backend and shows the merged result, which can be saved, copied or archived.

Example usage:
  upload-form                              # Interactive form
  upload-form submit --text report.txt
  upload-form submit --excel entities.xlsx --save
  upload-form inspect entities.xlsx`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveForm(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		fmt.Sprintf("config file (default is %s)", config.GetDefaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error
	globalConfig, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging()

	return nil
}

// setupLogging configures the global logger based on config and flags
func setupLogging() {
	level := globalConfig.Log.Level
	if verbose {
		level = "debug"
	} else if quiet {
		level = "error"
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Invalid log level %s, using info", level)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	// Redirect all logs to file to prevent UI interference
	logFile := globalConfig.Log.File
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		logrus.Warnf("Failed to create log directory for %s: %v", logFile, err)
	} else {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logrus.Warnf("Failed to open log file %s: %v", logFile, err)
		} else {
			logrus.SetOutput(file)
		}
	}

	if globalConfig.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: quiet,
			FullTimestamp:    verbose,
		})
	}
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return globalConfig
}

// runInteractiveForm runs the bubbletea upload form
func runInteractiveForm(ctx context.Context) error {
	cfg := globalConfig

	userData, err := config.LoadUserData()
	if err != nil {
		logrus.Warnf("Failed to load user data: %v", err)
	}

	model := tui.NewFormModel(cfg, nil, userData)

	var opts []transport.Option
	if cfg.Upload.ShowProgress {
		opts = append(opts, transport.WithProgress(model.ReportProgress))
	}
	model.SetTransport(transport.NewClient(&cfg.Server, opts...))

	if cfg.Export.R2.Enabled {
		client, err := r2.NewClient(ctx, &cfg.Export.R2)
		if err != nil {
			return fmt.Errorf("failed to create R2 client: %w", err)
		}
		logrus.Debugf("Archiving results to R2 bucket %s", client.GetBucketName())
		model.SetArchiveSink(client.Sink())
	}

	program := tea.NewProgram(model, tea.WithAltScreen())

	// Set program reference in model for direct messaging
	model.SetProgram(program)

	_, err = program.Run()
	return err
}
