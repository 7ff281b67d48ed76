package source

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/sells-group/fda-apps/internal/failure"
)

const utf8BOM = "\ufeff"

type csvTable struct {
	f      *os.File
	r      *csv.Reader
	header []string
}

func openCSV(path string, opts Options) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, failure.New(failure.IOFailure, eris.Wrapf(err, "csv: open %s", path))
	}

	var in io.Reader = f
	if enc := strings.ToLower(strings.TrimSpace(opts.Encoding)); enc != "" && enc != "utf-8" && enc != "utf8" {
		e, err := htmlindex.Get(enc)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "csv: unknown encoding %q", opts.Encoding)
		}
		in = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(in)
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	header, err := r.Read()
	if err == io.EOF {
		f.Close() //nolint:errcheck
		return nil, failure.New(failure.SchemaMismatch, eris.Errorf("csv: %s has no header row", path))
	}
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, classifyRead(err, "csv: read header")
	}

	return &csvTable{f: f, r: r, header: cleanHeader(header)}, nil
}

func (t *csvTable) Header() []string { return t.header }

func (t *csvTable) Next() ([]string, error) {
	row, err := t.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, classifyRead(err, "csv: read row")
	}
	return row, nil
}

// classifyRead tags a malformed record as SchemaMismatch naming its line.
// Anything else failed below the parser and is an IOFailure.
func classifyRead(err error, msg string) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return failure.New(failure.SchemaMismatch, eris.Wrapf(err, "%s: malformed record at line %d", msg, pe.StartLine))
	}
	return failure.New(failure.IOFailure, eris.Wrap(err, msg))
}

func (t *csvTable) Close() error {
	return t.f.Close()
}

// cleanHeader trims column names and strips a leading byte order mark.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
