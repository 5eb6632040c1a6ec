package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/upload-form/internal/config"
	"github.com/HaiFongPan/upload-form/internal/export"
	"github.com/HaiFongPan/upload-form/internal/form"
	"github.com/HaiFongPan/upload-form/internal/picker"
	"github.com/HaiFongPan/upload-form/internal/r2"
	"github.com/HaiFongPan/upload-form/internal/sheet"
	"github.com/HaiFongPan/upload-form/internal/transport"
)

var (
	submitText       string
	submitExcel      string
	submitSave       bool
	submitOutput     string
	submitCopy       bool
	submitArchive    bool
	submitNoProgress bool
	submitEndpoint   string
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit one file without the interactive form",
	Long: `Submit a text file or an Excel workbook and print the formatted result.
Exactly one of --text and --excel must be given.

Examples:
  upload-form submit --text report.txt
  upload-form submit --excel entities.xlsx --save              # Save merged_data.txt
  upload-form submit --text report.txt --output out/result.txt
  upload-form submit --text report.txt --copy --archive
  upload-form submit --text report.txt --endpoint http://10.0.0.5:8000/upload`,
	Args: cobra.NoArgs,
	RunE: submitFile,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitText, "text", "t", "", "text file to submit (.txt)")
	submitCmd.Flags().StringVarP(&submitExcel, "excel", "x", "", "Excel workbook to submit (.xlsx)")
	submitCmd.Flags().BoolVarP(&submitSave, "save", "s", false, "save the result to the export directory")
	submitCmd.Flags().StringVarP(&submitOutput, "output", "o", "", "save the result to this path (implies --save)")
	submitCmd.Flags().BoolVar(&submitCopy, "copy", false, "copy the result to the clipboard")
	submitCmd.Flags().BoolVar(&submitArchive, "archive", false, "archive the result to R2")
	submitCmd.Flags().BoolVar(&submitNoProgress, "no-progress", false, "disable progress bar")
	submitCmd.Flags().StringVar(&submitEndpoint, "endpoint", "", "upload endpoint (overrides config)")
}

// submitOptions is what the submit command was asked to do
type submitOptions struct {
	textPath   string
	excelPath  string
	save       bool
	output     string
	copy       bool
	archive    bool
	noProgress bool
}

// submitSinks are the export destinations the submit command can use
type submitSinks struct {
	file      func(dir string) export.Sink
	clipboard export.Sink
	archive   func(ctx context.Context) (export.Sink, error)
}

func defaultSinks(cfg *config.Config) submitSinks {
	return submitSinks{
		file: func(dir string) export.Sink {
			return export.FileSink{Dir: dir}
		},
		clipboard: export.ClipboardSink{},
		archive: func(ctx context.Context) (export.Sink, error) {
			client, err := r2.NewClient(ctx, &cfg.Export.R2)
			if err != nil {
				return nil, fmt.Errorf("failed to create R2 client: %w", err)
			}
			logrus.Infof("Archiving result to R2 bucket %s", client.GetBucketName())
			return client.Sink(), nil
		},
	}
}

func submitFile(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	server := cfg.Server
	if submitEndpoint != "" {
		server.Endpoint = submitEndpoint
	}

	opts := submitOptions{
		textPath:   submitText,
		excelPath:  submitExcel,
		save:       submitSave,
		output:     submitOutput,
		copy:       submitCopy,
		archive:    submitArchive,
		noProgress: submitNoProgress || quiet || !cfg.Upload.ShowProgress,
	}

	var progress *transport.ConsoleProgress
	var clientOpts []transport.Option
	if !opts.noProgress && largestFile(opts) > cfg.Upload.ProgressThreshold {
		progress = transport.NewConsoleProgress(cmd.ErrOrStderr(), fmt.Sprintf("Uploading %s", filepath.Base(opts.textPath+opts.excelPath)))
		clientOpts = append(clientOpts, transport.WithProgress(progress.Update))
	}
	client := transport.NewClient(&server, clientOpts...)

	err := runSubmit(cmd.Context(), cfg, client, opts, defaultSinks(cfg), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if progress != nil {
		progress.Close()
	}
	return err
}

// runSubmit drives the form headless: select, submit, print and export.
func runSubmit(ctx context.Context, cfg *config.Config, t form.Transport, opts submitOptions, sinks submitSinks, out, errOut io.Writer) error {
	controller := form.NewController(t)

	if opts.textPath != "" {
		file, err := picker.FromPath(opts.textPath)
		if err != nil {
			return err
		}
		if state := controller.SelectText(file); state.Err() != nil {
			return state.Err()
		}
	}
	if opts.excelPath != "" {
		file, err := picker.FromPath(opts.excelPath)
		if err != nil {
			return err
		}
		if state := controller.SelectExcel(file); state.Err() != nil {
			return state.Err()
		}
		sheet.LogSummary(file)
	}

	state := controller.Submit(ctx)
	if err := state.Err(); err != nil {
		logrus.Errorf("Submit failed: %v", err)
		return err
	}

	rendered, err := export.Render(state.Result())
	if err != nil && !errors.Is(err, export.ErrNoResult) {
		return err
	}
	if len(rendered) > 0 {
		fmt.Fprintln(out, string(rendered))
	}
	fmt.Fprintln(errOut, state.SuccessMessage())

	rememberSubmitted(cfg, opts)

	name := cfg.Export.FileName
	if opts.save || opts.output != "" {
		dir, fileName := cfg.Export.Directory, name
		if opts.output != "" {
			dir, fileName = filepath.Split(opts.output)
		}
		if err := downloadTo(ctx, controller, sinks.file(dir), fileName, errOut); err != nil {
			return err
		}
	}

	if opts.copy {
		if err := downloadTo(ctx, controller, sinks.clipboard, name, errOut); err != nil {
			return err
		}
	}

	if opts.archive {
		sink, err := sinks.archive(ctx)
		if err != nil {
			return err
		}
		if err := downloadTo(ctx, controller, sink, name, errOut); err != nil {
			return err
		}
	}

	return nil
}

func downloadTo(ctx context.Context, controller *form.Controller, sink export.Sink, name string, errOut io.Writer) error {
	location, err := controller.Download(ctx, sink, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(errOut, "Result saved to %s\n", location)
	return nil
}

func largestFile(opts submitOptions) int64 {
	var size int64
	for _, path := range []string{opts.textPath, opts.excelPath} {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil && info.Size() > size {
			size = info.Size()
		}
	}
	return size
}

func rememberSubmitted(cfg *config.Config, opts submitOptions) {
	if !cfg.UI.RememberFiles {
		return
	}

	userData, err := config.LoadUserData()
	if err != nil {
		return
	}
	if opts.textPath != "" {
		err = userData.SetLastTextFile(opts.textPath)
	} else {
		err = userData.SetLastExcelFile(opts.excelPath)
	}
	if err != nil {
		logrus.Warnf("Failed to save recent file: %v", err)
	}
}
