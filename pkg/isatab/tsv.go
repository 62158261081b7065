package isatab

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"isacore/pkg/isa"
)

// record is one non-comment line of a tab-separated file.
type record struct {
	Line  int
	Cells []string
}

// readRecords reads every record of a tab-separated stream. Lines starting
// with '#' are dropped. It also reports whether any cell was quoted so that
// writers can preserve the quoting style.
func readRecords(r io.Reader, file string) ([]record, bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("isatab: read %s: %w", file, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	quoted := detectQuoting(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	var out []record
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, quoted, &isa.ParseError{File: file, Line: pe.Line, Column: pe.Column, Err: pe.Err}
			}
			return nil, quoted, &isa.ParseError{File: file, Err: err}
		}
		line, _ := cr.FieldPos(0)
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if blank(cells) {
			continue
		}
		out = append(out, record{Line: line, Cells: cells})
	}
	return out, quoted, nil
}

func detectQuoting(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, `"#`) {
			// a quoted leading '#' is the writer guarding a cell, not a style
			i := strings.IndexByte(line, '\t')
			if i < 0 {
				continue
			}
			line = line[i:]
		}
		if strings.HasPrefix(line, `"`) || strings.Contains(line, "\t\"") {
			return true
		}
	}
	return false
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// recordWriter emits tab-separated lines, either minimally quoted through
// encoding/csv or with every cell quoted. A first cell starting with '#' is
// always quoted so the line is not read back as a comment.
type recordWriter struct {
	w     *bufio.Writer
	csv   *csv.Writer
	quote bool
}

func newRecordWriter(w io.Writer, quote bool) *recordWriter {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	cw.Comma = '\t'
	return &recordWriter{w: bw, csv: cw, quote: quote}
}

func (rw *recordWriter) Write(cells []string) error {
	guard := len(cells) > 0 && strings.HasPrefix(cells[0], "#")
	if !rw.quote && !guard {
		return rw.csv.Write(cells)
	}
	rw.csv.Flush()
	if err := rw.csv.Error(); err != nil {
		return err
	}
	for i, c := range cells {
		if i > 0 {
			if err := rw.w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if !rw.quote && i > 0 && !needsQuotes(c) {
			if _, err := rw.w.WriteString(c); err != nil {
				return err
			}
			continue
		}
		if _, err := rw.w.WriteString(`"` + strings.ReplaceAll(c, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return rw.w.WriteByte('\n')
}

// needsQuotes mirrors the minimal quoting of encoding/csv for a tab separator.
func needsQuotes(c string) bool {
	if c == "" {
		return false
	}
	if c == `\.` || strings.ContainsAny(c, "\t\"\r\n") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(c)
	return unicode.IsSpace(r)
}

func (rw *recordWriter) Flush() error {
	rw.csv.Flush()
	if err := rw.csv.Error(); err != nil {
		return err
	}
	return rw.w.Flush()
}
