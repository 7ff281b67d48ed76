package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fda-apps/internal/config"
	"github.com/sells-group/fda-apps/internal/pipeline"
)

var (
	ingestInput  string
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the application table and append it to the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context(), cfg, cmd.OutOrStdout(), ingestInput, ingestDryRun)
	},
}

func runIngest(ctx context.Context, c *config.Config, out io.Writer, input string, dryRun bool) error {
	mode := "ingest"
	if dryRun {
		mode = "link"
	}
	if err := c.Validate(mode); err != nil {
		return err
	}

	opts, err := pipelineOptions(c, dryRun)
	if err != nil {
		return err
	}

	tbl, err := openInput(ctx, c, input)
	if err != nil {
		return eris.Wrap(err, "open input")
	}
	defer tbl.Close() //nolint:errcheck

	var res *pipeline.Result
	if dryRun {
		res, err = pipeline.Run(ctx, nil, tbl, opts)
	} else {
		st, serr := initStore(ctx, c)
		if serr != nil {
			return serr
		}
		defer st.Close() //nolint:errcheck
		res, err = pipeline.Run(ctx, st, tbl, opts)
	}
	if err != nil {
		return eris.Wrap(err, "ingest")
	}

	zap.L().Info("ingest complete",
		zap.String("run_id", res.RunID),
		zap.Int("applicants", res.Applicants),
		zap.Int("applications", res.Applications),
		zap.Bool("dry_run", res.DryRun),
	)
	_, err = fmt.Fprintf(out, "run %s: %d applicants, %d applications, %d links (%d reparented), %d rows skipped\n",
		res.RunID, res.Applicants, res.Applications, res.Links, res.Reparented, res.SkippedRows)
	return err
}

func init() {
	ingestCmd.Flags().StringVar(&ingestInput, "input", "", "input path or URL (overrides input.path)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "load and link without writing to the store")
	rootCmd.AddCommand(ingestCmd)
}
