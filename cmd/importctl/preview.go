package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/vetimport/internal/core"
)

type previewOptions struct {
	table         string
	file          string
	format        string
	secret        string
	failOnInvalid bool
}

// errHasInvalidRows is returned by preview --fail-on-invalid.
var errHasInvalidRows = errors.New("preview found invalid rows")

// noSubmit satisfies core.Submitter for a Service that only previews.
type noSubmit struct{}

func (noSubmit) Submit(context.Context, core.TableDefinition, core.SubmitRequest) (core.SubmitResponse, error) {
	return core.SubmitResponse{}, errors.New("importctl does not submit rows")
}

func newPreviewCmd(c *cli) *cobra.Command {
	var opts previewOptions

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Normalize a sheet of rows and report what an import would do",
		Long: `Read rows from a JSON or CSV file, run them through the security gate,
dispatch and normalization, and print the per-row errors and a sample of the
cleaned records. Nothing is sent downstream.

JSON files hold either an array of row objects or {"rows": [...]}.
CSV files use the first non-blank line as the header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), c, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.table, "table", "", "Table type, e.g. vaccination (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to a .json or .csv file of rows (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Input format: json or csv (default: from file extension)")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Caller secret, when IMPORT_SECRET is configured")
	cmd.Flags().BoolVar(&opts.failOnInvalid, "fail-on-invalid", false, "Exit non-zero if any row is rejected")

	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runPreview(ctx context.Context, c *cli, opts previewOptions, out io.Writer) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	format := opts.format
	if format == "" {
		format = core.FormatFromPath(opts.file)
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open rows file: %w", err)
	}
	defer f.Close()

	rows, err := core.ReadRows(f, format)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.file, err)
	}

	service := core.NewService(noSubmit{}, cfg)
	result, err := service.Preview(ctx, core.ImportRequest{
		TableType:    core.TableType(opts.table),
		Rows:         rows,
		CallerSecret: opts.secret,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}

	if c.output != outputText {
		err = writeStructured(out, c.output, result)
	} else {
		err = writePreviewText(out, result)
	}
	if err != nil {
		return err
	}

	if opts.failOnInvalid && result.InvalidRows > 0 {
		return fmt.Errorf("%w: %d of %d", errHasInvalidRows, result.InvalidRows, result.TotalRows)
	}
	return nil
}

func writePreviewText(w io.Writer, res *core.PreviewResult) error {
	fmt.Fprintf(w, "Table:   %s\n", res.TableType)
	fmt.Fprintf(w, "Rows:    %d total, %d valid, %d invalid\n", res.TotalRows, res.ValidRows, res.InvalidRows)

	if len(res.Errors) == 0 {
		fmt.Fprintln(w, "No field errors.")
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tFIELD\tVALUE\tMESSAGE")
	for _, fe := range res.Errors {
		fmt.Fprintf(tw, "%d\t%s\t%v\t%s\n", fe.RowIndex, fe.Field, fe.OriginalValue, fe.Message)
	}
	return tw.Flush()
}
