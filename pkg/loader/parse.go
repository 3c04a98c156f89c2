package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/interactome/internal/util"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

var ErrNoSources = errors.New("no source files given")

// LoadError reports a malformed row or an unreadable source. Line is 1-based
// and zero when the failure is not tied to a line.
type LoadError struct {
	File string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// format describes how lines of one source file become table rows.
type format struct {
	table   store.Table
	delim   string
	convert func(tok []string) ([]any, error)
}

// headerTokens mark header lines by their first column.
var headerTokens = map[string]struct{}{
	"protein1":  {},
	"item_id_a": {},
}

var aliasFormat = format{
	table: store.AliasTable,
	delim: "\t",
	convert: func(tok []string) ([]any, error) {
		if len(tok) != 3 {
			return nil, fmt.Errorf("expected 3 columns, got %d", len(tok))
		}
		// Alias names are free text.
		return []any{tok[0], util.SanitizeText(tok[1]), util.SanitizeText(tok[2])}, nil
	},
}

var evidenceFormat = format{
	table: store.EvidenceTable,
	delim: " ",
	convert: func(tok []string) ([]any, error) {
		if len(tok) != 10 {
			return nil, fmt.Errorf("expected 10 columns, got %d", len(tok))
		}
		row := make([]any, 10)
		row[0], row[1] = tok[0], tok[1]
		for i := 2; i < 10; i++ {
			v, err := parseScore(store.EvidenceTable.Columns[i].Name, tok[i])
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		return row, nil
	},
}

var actionsFormat = format{
	table: store.ActionsTable,
	delim: "\t",
	convert: func(tok []string) ([]any, error) {
		if len(tok) != 7 {
			return nil, fmt.Errorf("expected 7 columns, got %d", len(tok))
		}
		var action any
		if tok[3] != "" {
			action = tok[3]
		}
		directional, err := parseFlag("is_directional", tok[4])
		if err != nil {
			return nil, err
		}
		acting, err := parseFlag("a_is_acting", tok[5])
		if err != nil {
			return nil, err
		}
		score, err := parseScore("score", tok[6])
		if err != nil {
			return nil, err
		}
		return []any{tok[0], tok[1], tok[2], action, directional, acting, score}, nil
	},
}

func parseScore(column, v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", column, v)
	}
	return n, nil
}

func parseFlag(column, v string) (int64, error) {
	switch v {
	case "t":
		return 1, nil
	case "f":
		return 0, nil
	}
	return 0, fmt.Errorf("column %s: expected t or f, got %q", column, v)
}

// rowReader splits a source file into batches of converted table rows.
// Comment lines (leading '#'), blank lines and header lines are skipped.
type rowReader struct {
	file   string
	r      *bufio.Reader
	format format
	line   int
	done   bool
}

// newRowReader reads rows of format f from r. file is only used in errors.
func newRowReader(file string, r io.Reader, f format) *rowReader {
	return &rowReader{
		file:   file,
		r:      bufio.NewReaderSize(r, 1<<16),
		format: f,
	}
}

// Next returns up to n converted rows. An empty batch with a nil error
// signals the end of the input.
func (rr *rowReader) Next(n int) ([][]any, error) {
	if n <= 0 {
		n = DefaultBatchSize
	}
	batch := make([][]any, 0, min(n, 1024))
	for len(batch) < n && !rr.done {
		line, err := rr.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, &LoadError{File: rr.file, Line: rr.line + 1, Err: err}
			}
			rr.done = true
			if line == "" {
				break
			}
		}
		rr.line++

		if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		tok := strings.Split(line, rr.format.delim)
		if _, ok := headerTokens[tok[0]]; ok {
			continue
		}
		row, err := rr.format.convert(tok)
		if err != nil {
			return nil, &LoadError{File: rr.file, Line: rr.line, Err: err}
		}
		batch = append(batch, row)
	}
	return batch, nil
}
