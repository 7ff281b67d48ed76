// Package source opens the tabular input of an ingest run. A location may be
// a local CSV/TSV/XLSX/ZIP file or an http(s)/ftp URL that is downloaded first.
package source

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fda-apps/internal/failure"
)

// Table is a header plus a forward-only row iterator.
type Table interface {
	// Header returns the column names of the first row.
	Header() []string
	// Next returns the next data row, or io.EOF when the table is exhausted.
	Next() ([]string, error)
	// Close releases the underlying file.
	Close() error
}

// Options configures how a location is resolved and parsed.
type Options struct {
	Delimiter  rune   // CSV field separator; default ',' (tab for .tsv)
	Encoding   string // WHATWG charset label; "" or "utf-8" reads bytes as-is
	Sheet      string // XLSX sheet name; "" selects the first sheet
	TempDir    string // parent of the per-open work directory; default os.TempDir()
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// Downloader fetches a remote location into a local file.
type Downloader interface {
	DownloadToFile(ctx context.Context, rawURL, path string) (int64, error)
}

// Open resolves location into a Table. Downloads and ZIP extractions go to a
// private work directory under opts.TempDir that is removed by Table.Close.
// ZIP archives must hold exactly one data file.
func Open(ctx context.Context, location string, opts Options) (Table, error) {
	if strings.TrimSpace(location) == "" {
		return nil, failure.New(failure.IOFailure, eris.New("source: empty input location"))
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if err := os.MkdirAll(opts.TempDir, 0o755); err != nil {
		return nil, failure.New(failure.IOFailure, eris.Wrap(err, "source: create temp dir"))
	}
	workDir, err := os.MkdirTemp(opts.TempDir, "fda-apps-*")
	if err != nil {
		return nil, failure.New(failure.IOFailure, eris.Wrap(err, "source: create work dir"))
	}

	tbl, err := open(ctx, location, workDir, opts)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}
	return &scopedTable{Table: tbl, dir: workDir}, nil
}

func open(ctx context.Context, location, workDir string, opts Options) (Table, error) {
	path, err := localize(ctx, location, workDir, opts)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		extracted, err := extractSingle(path, filepath.Join(workDir, "unzipped"))
		if err != nil {
			return nil, failure.New(failure.IOFailure, err)
		}
		path = extracted
	}

	zap.L().Debug("source: opening table", zap.String("location", location), zap.String("path", path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return openXLSX(path, opts.Sheet)
	case ".tsv", ".tab":
		if opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
	}
	return openCSV(path, opts)
}

// localize returns a local path for location, downloading remote URLs.
func localize(ctx context.Context, location, workDir string, opts Options) (string, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Not a URL, or a Windows drive letter.
		if _, statErr := os.Stat(location); statErr != nil {
			return "", failure.New(failure.IOFailure, eris.Wrapf(statErr, "source: stat %s", location))
		}
		return location, nil
	}

	var d Downloader
	switch u.Scheme {
	case "http", "https":
		d = NewHTTPDownloader(HTTPOptions{
			UserAgent:  opts.UserAgent,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
			RatePerSec: opts.RatePerSec,
		})
	case "ftp":
		d = NewFTPDownloader(opts.Timeout)
	case "file":
		return localize(ctx, u.Path, workDir, opts)
	default:
		return "", failure.New(failure.IOFailure, eris.Errorf("source: unsupported scheme %q", u.Scheme))
	}

	return download(ctx, d, location, workDir)
}

func download(ctx context.Context, d Downloader, rawURL, workDir string) (string, error) {
	name := "input.csv"
	if u, err := url.Parse(rawURL); err == nil {
		if base := filepath.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	dest := filepath.Join(workDir, name)

	n, err := d.DownloadToFile(ctx, rawURL, dest)
	if err != nil {
		return "", failure.New(failure.IOFailure, eris.Wrapf(err, "source: download %s", rawURL))
	}
	zap.L().Info("source: downloaded input", zap.String("url", rawURL), zap.Int64("bytes", n))
	return dest, nil
}

// scopedTable removes the work directory of an Open call on Close.
type scopedTable struct {
	Table
	dir string
}

func (t *scopedTable) Close() error {
	closeErr := t.Table.Close()
	if err := os.RemoveAll(t.dir); err != nil && closeErr == nil {
		return eris.Wrapf(err, "source: remove work dir %s", t.dir)
	}
	return closeErr
}
