package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fda-apps/internal/company"
	"github.com/sells-group/fda-apps/internal/config"
	"github.com/sells-group/fda-apps/internal/model"
	"github.com/sells-group/fda-apps/internal/pipeline"
)

var (
	linkInput  string
	linkFormat string
)

// linkReport is the output of the link command.
type linkReport struct {
	Applicants int               `json:"applicants" yaml:"applicants"`
	Reparented int               `json:"reparented" yaml:"reparented"`
	Links      []model.Link      `json:"links" yaml:"links"`
	Clusters   []company.Cluster `json:"clusters" yaml:"clusters"`
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print applicant links and clusters without writing to the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLink(cmd.Context(), cfg, cmd.OutOrStdout(), linkInput, linkFormat)
	},
}

func runLink(ctx context.Context, c *config.Config, out io.Writer, input, format string) error {
	if err := c.Validate("link"); err != nil {
		return err
	}
	if format != "json" && format != "yaml" {
		return eris.Errorf("link: unknown format %q (valid: json, yaml)", format)
	}

	opts, err := pipelineOptions(c, true)
	if err != nil {
		return err
	}

	tbl, err := openInput(ctx, c, input)
	if err != nil {
		return eris.Wrap(err, "open input")
	}
	defer tbl.Close() //nolint:errcheck

	plan, err := pipeline.Prepare(ctx, tbl, opts)
	if err != nil {
		return eris.Wrap(err, "link")
	}

	report := linkReport{
		Applicants: len(plan.Applicants),
		Reparented: company.Reparented(plan.Links),
		Links:      plan.Links,
		Clusters:   company.Clusters(plan.Applicants, plan.Links),
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "link: encode yaml")
		}
		return eris.Wrap(enc.Close(), "link: close yaml encoder")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(report), "link: encode json")
}

func init() {
	linkCmd.Flags().StringVar(&linkInput, "input", "", "input path or URL (overrides input.path)")
	linkCmd.Flags().StringVar(&linkFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(linkCmd)
}
