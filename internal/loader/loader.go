// Package loader turns an FDA application table into applicants and
// applications, assigning each distinct applicant name a numeric id.
package loader

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fda-apps/internal/failure"
	"github.com/sells-group/fda-apps/internal/model"
	"github.com/sells-group/fda-apps/internal/source"
)

// IDOrder selects how applicant ids are assigned.
type IDOrder string

const (
	// FirstSeen numbers names in the order they first appear in the file.
	FirstSeen IDOrder = "first_seen"
	// Lexical numbers names in ascending byte order.
	Lexical IDOrder = "lexical"
)

// ParseIDOrder converts a config string into an IDOrder. Empty means FirstSeen.
func ParseIDOrder(s string) (IDOrder, error) {
	switch IDOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", FirstSeen:
		return FirstSeen, nil
	case Lexical:
		return Lexical, nil
	default:
		return "", eris.Errorf("loader: unknown id order %q (valid: first_seen, lexical)", s)
	}
}

// Options configures Load.
type Options struct {
	IDOrder IDOrder
}

// Load reads every row of tbl. The header must contain every column in
// model.InputColumns; otherwise a SchemaMismatch error lists the missing ones.
func Load(ctx context.Context, tbl source.Table, opts Options) (*model.Dataset, error) {
	log := zap.L().With(zap.String("component", "loader"))

	colIdx, err := indexColumns(tbl.Header())
	if err != nil {
		return nil, err
	}

	var (
		names   []string
		nameIdx = make(map[string]int)
		apps    []model.Application
		owners  []int // index into names for each application
		skipped int
	)

	// Line 1 is the header.
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "loader: context cancelled")
		}

		record, err := tbl.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "loader: read line %d", line+1)
		}
		line++

		r := row{record: record, colIdx: colIdx, line: line}

		name := r.raw(model.ColApplicant)
		if strings.TrimSpace(name) == "" {
			skipped++
			log.Warn("loader: skipping row without applicant", zap.Int("line", line))
			continue
		}

		app, err := r.application()
		if err != nil {
			return nil, err
		}

		k, ok := nameIdx[name]
		if !ok {
			k = len(names)
			nameIdx[name] = k
			names = append(names, name)
		}
		apps = append(apps, app)
		owners = append(owners, k)
	}

	ids := assignIDs(names, opts.IDOrder)

	ds := &model.Dataset{
		Applicants:   make([]model.Applicant, len(names)),
		Applications: apps,
		SkippedRows:  skipped,
	}
	for k, name := range names {
		ds.Applicants[k] = model.Applicant{ID: ids[k], Name: name}
	}
	sort.Slice(ds.Applicants, func(i, j int) bool { return ds.Applicants[i].ID < ds.Applicants[j].ID })
	for i := range ds.Applications {
		ds.Applications[i].ApplicantID = ids[owners[i]]
	}

	log.Info("loader: table loaded",
		zap.Int("applicants", len(ds.Applicants)),
		zap.Int("applications", len(ds.Applications)),
		zap.Int("skipped_rows", skipped),
		zap.String("id_order", string(opts.IDOrder)),
	)
	return ds, nil
}

// assignIDs returns the 1-based id of each name, aligned with names.
func assignIDs(names []string, order IDOrder) []int64 {
	ids := make([]int64, len(names))
	if order != Lexical {
		for k := range names {
			ids[k] = int64(k + 1)
		}
		return ids
	}

	perm := make([]int, len(names))
	for k := range perm {
		perm[k] = k
	}
	sort.Slice(perm, func(a, b int) bool { return names[perm[a]] < names[perm[b]] })
	for rank, k := range perm {
		ids[k] = int64(rank + 1)
	}
	return ids
}

// indexColumns maps column name to position and checks that every input
// column is present. The first occurrence of a duplicated header wins.
func indexColumns(header []string) (map[string]int, error) {
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := colIdx[key]; !dup {
			colIdx[key] = i
		}
	}

	var missing []string
	for _, col := range model.InputColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, failure.New(failure.SchemaMismatch,
			eris.Errorf("loader: missing required columns: %s", strings.Join(missing, ", ")))
	}
	return colIdx, nil
}
