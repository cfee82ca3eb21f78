package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/vidtag/internal/domain/model"
)

const halfColumnName = "half"

// column maps one persisted CSV column onto an Event attribute.
// A nil decode means the column is derived and ignored on read.
type column struct {
	name   string
	encode func(e model.Event) string
	decode func(e *model.Event, v string) error
}

func parseInt(v string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
}

var recordColumns = []column{
	{
		name:   "frame",
		encode: func(e model.Event) string { return strconv.FormatInt(e.Frame, 10) },
		decode: func(e *model.Event, v string) (err error) {
			e.Frame, err = parseInt(v)
			return err
		},
	},
	{
		name:   "team",
		encode: func(e model.Event) string { return e.Team },
		decode: func(e *model.Event, v string) error { e.Team = v; return nil },
	},
	{
		name:   "event",
		encode: func(e model.Event) string { return e.Label },
		decode: func(e *model.Event, v string) error { e.Label = v; return nil },
	},
	{name: "minute", encode: model.Event.Minute},
	{name: "second", encode: model.Event.Second},
	{
		name:   "x",
		encode: func(e model.Event) string { return strconv.Itoa(e.X) },
		decode: func(e *model.Event, v string) error {
			n, err := parseInt(v)
			e.X = int(n)
			return err
		},
	},
	{
		name:   "y",
		encode: func(e model.Event) string { return strconv.Itoa(e.Y) },
		decode: func(e *model.Event, v string) error {
			n, err := parseInt(v)
			e.Y = int(n)
			return err
		},
	},
	{
		name:   "video_ms",
		encode: func(e model.Event) string { return strconv.FormatInt(e.Position, 10) },
		decode: func(e *model.Event, v string) (err error) {
			e.Position, err = parseInt(v)
			return err
		},
	},
}

var halfColumn = column{
	name:   halfColumnName,
	encode: func(e model.Event) string { return strconv.Itoa(e.Half) },
	decode: func(e *model.Event, v string) error {
		if strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := parseInt(v)
		e.Half = int(n)
		return err
	},
}

// codec reads and writes record files.
type codec struct {
	halfColumn bool
}

func (c codec) columns() []column {
	if !c.halfColumn {
		return recordColumns
	}
	return append(recordColumns[:len(recordColumns):len(recordColumns)], halfColumn)
}

// persisted returns e as it looks after a write and a read.
func (c codec) persisted(e model.Event) model.Event {
	if !c.halfColumn {
		e.Half = 0
	}
	return e
}

// header returns the header row written by the codec.
func (c codec) header() []string {
	cols := c.columns()
	h := make([]string, len(cols))
	for i, col := range cols {
		h[i] = col.name
	}
	return h
}

// decode parses a record file. An empty input yields an empty table.
func (c codec) decode(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedRow, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[columnName(name)] = i
	}

	type bound struct {
		col column
		idx int
	}
	var readers []bound
	for _, col := range recordColumns {
		idx, ok := index[col.name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col.name)
		}
		if col.decode != nil {
			readers = append(readers, bound{col: col, idx: idx})
		}
	}
	if idx, ok := index[halfColumnName]; ok {
		readers = append(readers, bound{col: halfColumn, idx: idx})
	}

	t := &table{header: header}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRow, err)
		}

		e := model.Event{X: model.NoCoord, Y: model.NoCoord}
		for _, b := range readers {
			if err := b.col.decode(&e, row[b.idx]); err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %w", ErrMalformedRow, line, b.col.name, err)
			}
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		t.rows = append(t.rows, record{event: e, cells: row})
	}
	return t, nil
}

// record is one data row: the decoded event and its cells as read.
type record struct {
	event model.Event
	cells []string
}

// table is a record file as read. Rows keep their original cells so a
// rewrite preserves columns and formatting the codec does not own.
type table struct {
	header []string
	rows   []record
}

func (t *table) events() []model.Event {
	if t == nil {
		return nil
	}
	out := make([]model.Event, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.event
	}
	return out
}

// layout returns the header to write over t: the file's own header, extended
// with any codec column it lacks. A file with no header gets the codec's.
func (c codec) layout(t *table) []string {
	if t == nil || len(t.header) == 0 {
		return c.header()
	}
	header := slices.Clone(t.header)
	have := make(map[string]bool, len(header))
	for _, name := range header {
		have[columnName(name)] = true
	}
	for _, col := range c.columns() {
		if !have[col.name] {
			header = append(header, col.name)
		}
	}
	return header
}

// row encodes e for header. Columns the codec does not write stay empty.
func (c codec) row(header []string, e model.Event) []string {
	cols := make(map[string]column, len(header))
	for _, col := range c.columns() {
		cols[col.name] = col
	}
	cells := make([]string, len(header))
	for i, name := range header {
		if col, ok := cols[columnName(name)]; ok {
			cells[i] = col.encode(e)
		}
	}
	return cells
}

// fit pads or trims cells to n columns.
func fit(cells []string, n int) []string {
	if len(cells) >= n {
		return cells[:n]
	}
	return append(slices.Clone(cells), make([]string, n-len(cells))...)
}

func columnName(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
}

// encode writes header followed by rows.
func encode(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (c codec) readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRecordFileNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.decode(f)
}

func (c codec) readFile(path string) ([]model.Event, error) {
	t, err := c.readTable(path)
	if err != nil {
		return nil, err
	}
	return t.events(), nil
}

// writeRows replaces the file at path with header and rows.
func writeRows(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	if err := encode(&buf, header, rows); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writeFile replaces the file at path with events in the codec's own layout.
func (c codec) writeFile(path string, events []model.Event) error {
	header := c.header()
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = c.row(header, e)
	}
	return writeRows(path, header, rows)
}
