package loader

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"

	"github.com/sells-group/fda-apps/internal/failure"
	"github.com/sells-group/fda-apps/internal/model"
)

// row is one data record with its header index.
type row struct {
	record []string
	colIdx map[string]int
	line   int
}

// raw returns the untrimmed cell for col, or "" when the record is short.
func (r row) raw(col string) string {
	idx, ok := r.colIdx[col]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return r.record[idx]
}

func (r row) cell(col string) string {
	return strings.TrimSpace(r.raw(col))
}

func (r row) mismatch(col, val string, err error) error {
	return failure.New(failure.SchemaMismatch,
		eris.Wrapf(err, "loader: line %d: column %s: cannot parse %q", r.line, col, val))
}

// application builds the record; ApplicantID is filled in by the caller.
func (r row) application() (model.Application, error) {
	var app model.Application
	var err error

	num := r.cell(model.ColBLANDANumber)
	if num == "" {
		return app, failure.New(failure.SchemaMismatch,
			eris.Errorf("loader: line %d: column %s is empty", r.line, model.ColBLANDANumber))
	}
	if app.BLANDANumber, err = parseInt(num); err != nil {
		return app, r.mismatch(model.ColBLANDANumber, num, err)
	}

	if app.IsBiologic, err = r.boolPtr(model.ColIsBiologic); err != nil {
		return app, err
	}
	if app.IsDeleted, err = r.boolPtr(model.ColIsDeleted); err != nil {
		return app, err
	}
	if app.SupplementNo, err = r.intPtr(model.ColSupplementNo); err != nil {
		return app, err
	}
	if app.LicenseNo, err = r.intPtr(model.ColLicenseNo); err != nil {
		return app, err
	}
	if app.ExclusivityDate, err = r.timePtr(model.ColExclusivityDate); err != nil {
		return app, err
	}
	if app.CreatedAt, err = r.timePtr(model.ColCreatedAt); err != nil {
		return app, err
	}
	if app.UpdatedAt, err = r.timePtr(model.ColUpdatedAt); err != nil {
		return app, err
	}

	app.ProprietaryName = r.textPtr(model.ColProprietaryName)
	app.ProperName = r.textPtr(model.ColProperName)
	app.ApprovalType = r.textPtr(model.ColApprovalType)
	app.RefProperName = r.textPtr(model.ColRefProperName)
	app.RefProprietaryName = r.textPtr(model.ColRefProprietaryName)

	return app, nil
}

// textPtr returns nil for an empty cell. Non-empty text is kept verbatim.
func (r row) textPtr(col string) *string {
	v := r.raw(col)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func (r row) boolPtr(col string) (*bool, error) {
	v := r.cell(col)
	if v == "" {
		return nil, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, r.mismatch(col, v, err)
	}
	return &b, nil
}

func (r row) intPtr(col string) (*int64, error) {
	v := r.cell(col)
	if v == "" {
		return nil, nil
	}
	n, err := parseInt(v)
	if err != nil {
		return nil, r.mismatch(col, v, err)
	}
	return &n, nil
}

func (r row) timePtr(col string) (*time.Time, error) {
	v := r.cell(col)
	if v == "" {
		return nil, nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, r.mismatch(col, v, err)
	}
	return &t, nil
}

// parseInt parses a base-10 integer, accepting the "125057.0" form that
// float-typed exports produce for integer columns with gaps.
func parseInt(s string) (int64, error) {
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, eris.Wrap(err, "parse integer")
	}
	return n, nil
}
