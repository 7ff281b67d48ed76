package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fda-apps/internal/config"
	"github.com/sells-group/fda-apps/internal/loader"
	"github.com/sells-group/fda-apps/internal/pipeline"
	"github.com/sells-group/fda-apps/internal/source"
	"github.com/sells-group/fda-apps/internal/store"
)

// openInput opens the configured table. override replaces input.path when set.
func openInput(ctx context.Context, c *config.Config, override string) (source.Table, error) {
	location := c.Input.Path
	if override != "" {
		location = override
	}

	delim, err := c.Input.DelimiterRune()
	if err != nil {
		return nil, err
	}

	return source.Open(ctx, location, source.Options{
		Delimiter:  delim,
		Encoding:   c.Input.Encoding,
		Sheet:      c.Input.Sheet,
		TempDir:    c.Input.TempDir,
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    c.Fetch.Timeout(),
		MaxRetries: c.Fetch.MaxRetries,
		RatePerSec: c.Fetch.RatePerSec,
	})
}

func pipelineOptions(c *config.Config, dryRun bool) (pipeline.Options, error) {
	order, err := loader.ParseIDOrder(c.Input.IDOrder)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{IDOrder: order, DryRun: dryRun}, nil
}

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}
