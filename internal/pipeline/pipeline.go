// Package pipeline runs one load: read the table, link applicant name
// variants, ensure the schema and append companies, applications and links.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fda-apps/internal/company"
	"github.com/sells-group/fda-apps/internal/loader"
	"github.com/sells-group/fda-apps/internal/model"
	"github.com/sells-group/fda-apps/internal/source"
	"github.com/sells-group/fda-apps/internal/store"
)

// Options configures a run.
type Options struct {
	IDOrder loader.IDOrder
	// DryRun stops after linking; the store is not touched.
	DryRun bool
}

// Plan is everything derived from the input before anything is written.
type Plan struct {
	Dataset    *model.Dataset
	Applicants []model.Applicant
	Links      []model.Link
}

// Result summarizes a run.
type Result struct {
	RunID        string              `json:"run_id"`
	Applicants   int                 `json:"applicants"`
	Applications int                 `json:"applications"`
	Links        int                 `json:"links"`
	Reparented   int                 `json:"reparented"`
	SkippedRows  int                 `json:"skipped_rows"`
	DryRun       bool                `json:"dry_run"`
	Written      *store.AppendResult `json:"written,omitempty"`
	Duration     time.Duration       `json:"duration"`
}

// Prepare loads tbl and computes the link rows. It never touches a store.
func Prepare(ctx context.Context, tbl source.Table, opts Options) (*Plan, error) {
	ds, err := loader.Load(ctx, tbl, loader.Options{IDOrder: opts.IDOrder})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load")
	}

	applicants := company.DedupeApplicants(ds.Applicants)
	return &Plan{
		Dataset:    ds,
		Applicants: applicants,
		Links:      company.BuildLinks(applicants),
	}, nil
}

// Run executes a full load into st. The schema is ensured even when the
// input holds no rows.
func Run(ctx context.Context, st store.Store, tbl source.Table, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.New().String(), DryRun: opts.DryRun}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting load", zap.Bool("dry_run", opts.DryRun))

	plan, err := Prepare(ctx, tbl, opts)
	if err != nil {
		return nil, err
	}
	res.Applicants = len(plan.Applicants)
	res.Applications = len(plan.Dataset.Applications)
	res.Links = len(plan.Links)
	res.Reparented = company.Reparented(plan.Links)
	res.SkippedRows = plan.Dataset.SkippedRows

	log.Info("pipeline: links built",
		zap.Int("applicants", res.Applicants),
		zap.Int("reparented", res.Reparented),
	)

	if opts.DryRun {
		res.Duration = time.Since(start)
		log.Info("pipeline: dry run complete", zap.Duration("duration", res.Duration))
		return res, nil
	}

	if err := st.EnsureSchema(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: ensure schema")
	}

	written, err := st.Append(ctx, plan.Applicants, plan.Dataset.Applications, plan.Links)
	if err != nil {
		log.Error("pipeline: append failed", zap.Error(err))
		return nil, eris.Wrap(err, "pipeline: append")
	}
	res.Written = written
	res.Duration = time.Since(start)

	log.Info("pipeline: load complete",
		zap.Int64("companies", written.Companies),
		zap.Int64("applications", written.Applications),
		zap.Int64("links", written.Links),
		zap.Int("skipped_rows", res.SkippedRows),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}
