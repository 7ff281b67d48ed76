package source

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/fda-apps/internal/failure"
)

type xlsxTable struct {
	header []string
	rows   [][]string
	pos    int
}

func openXLSX(path, sheetName string) (Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, failure.New(failure.IOFailure, eris.Wrapf(err, "xlsx: open %s", path))
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, failure.New(failure.SchemaMismatch, eris.Errorf("xlsx: sheet %q has no header row", sheet.Name))
	}

	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		rows = append(rows, cellStrings(row))
	}

	return &xlsxTable{
		header: cleanHeader(cellStrings(sheet.Rows[0])),
		rows:   rows,
	}, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, failure.New(failure.SchemaMismatch, eris.Errorf("xlsx: sheet %q not found", name))
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, failure.New(failure.SchemaMismatch, eris.New("xlsx: workbook has no sheets"))
	}
	return f.Sheets[0], nil
}

func cellStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}

func (t *xlsxTable) Header() []string { return t.header }

func (t *xlsxTable) Next() ([]string, error) {
	if t.pos >= len(t.rows) {
		return nil, io.EOF
	}
	row := t.rows[t.pos]
	t.pos++
	return row, nil
}

func (t *xlsxTable) Close() error { return nil }
