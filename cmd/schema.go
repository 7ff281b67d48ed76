package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fda-apps/internal/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the company, application and link tables if absent",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSchema(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func runSchema(ctx context.Context, c *config.Config, out io.Writer) error {
	if err := c.Validate("schema"); err != nil {
		return err
	}

	st, err := initStore(ctx, c)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.EnsureSchema(ctx); err != nil {
		return eris.Wrap(err, "schema")
	}
	_, err = fmt.Fprintf(out, "schema ready (%s)\n", c.Store.Driver)
	return err
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
