package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/HaiFongPan/upload-form/internal/form"
	"github.com/HaiFongPan/upload-form/internal/picker"
	"github.com/HaiFongPan/upload-form/internal/sheet"
	"github.com/HaiFongPan/upload-form/internal/transport"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file-path>",
	Short: "Show how the form would treat a file",
	Long: `Show a file's declared type, size and which form input accepts it.
Workbooks also get a per-sheet summary.

Examples:
  upload-form inspect report.txt
  upload-form inspect entities.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := picker.FromPath(args[0])
		if err != nil {
			return err
		}
		return inspectFile(file, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspectFile(file *picker.File, out io.Writer) error {
	fmt.Fprintf(out, "Name:     %s\n", file.Name)
	fmt.Fprintf(out, "Type:     %s (%s)\n", file.MediaType, picker.Category(file.MediaType))
	fmt.Fprintf(out, "Size:     %s\n", transport.FormatBytes(file.Size))

	switch {
	case form.Accepts(form.SlotText, file.MediaType):
		fmt.Fprintf(out, "Accepted: %s input (field %s)\n", form.SlotText, form.FieldText)
	case form.Accepts(form.SlotExcel, file.MediaType):
		fmt.Fprintf(out, "Accepted: %s input (field %s)\n", form.SlotExcel, form.FieldExcel)
	default:
		fmt.Fprintln(out, "Accepted: no (only .txt and .xlsx files can be submitted)")
		return nil
	}

	if file.MediaType != picker.MediaTypeExcel {
		return nil
	}

	summary, err := sheet.SummarizeFile(file)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s", summary)
	return nil
}
