// Package amplicon reads per-amplicon coverage analysis tables. A table is
// tab-separated with a header line; the first column identifies the amplicon and
// a column named total_reads holds its read count. All other columns are kept
// as-is so rows can be written back unchanged.
package amplicon

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// TotalReadsColumn is the header of the column holding read counts.
const TotalReadsColumn string = "total_reads"

// Row is one amplicon in file order.
type Row struct {
	ID         string
	TotalReads int
	Fields     []string
}

// Table is one sample's coverage analysis results.
type Table struct {
	Sample string
	Header []string
	Rows   []Row
}

// SampleName strips the directory and the .tsv (or last) extension from filename.
func SampleName(filename string) string {
	base := filepath.Base(filename)
	if idx := strings.Index(base, ".tsv"); idx > 0 {
		return base[:idx]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Read parses a coverage analysis table. A file that cannot be opened is
// returned as an error.
func Read(filename string) (Table, error) {
	t := Table{Sample: SampleName(filename)}
	if err := readable(filename); err != nil {
		return t, errors.Wrapf(err, "reading amplicon table")
	}
	file := fileio.EasyOpen(filename)
	defer cleanup(file)

	totalCol := -1
	var line string
	var done bool
	var words []string
	var lineNum int
	var err error
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		lineNum++
		if strings.TrimSpace(line) == "" {
			continue
		}
		words = strings.Split(strings.TrimRight(line, "\r"), "\t")
		if t.Header == nil {
			t.Header = words
			for i := range words {
				if words[i] == TotalReadsColumn {
					totalCol = i
				}
			}
			if totalCol == -1 {
				return t, fmt.Errorf("%s: header has no %s column", filename, TotalReadsColumn)
			}
			continue
		}
		if len(words) != len(t.Header) {
			return t, fmt.Errorf("%s: line %d has %d fields, header has %d", filename, lineNum, len(words), len(t.Header))
		}
		var r Row
		r.ID = words[0]
		r.Fields = words
		r.TotalReads, err = strconv.Atoi(words[totalCol])
		if err != nil {
			return t, fmt.Errorf("%s: line %d: %s %q is not an integer", filename, lineNum, TotalReadsColumn, words[totalCol])
		}
		if r.TotalReads < 0 {
			return t, fmt.Errorf("%s: line %d: negative %s", filename, lineNum, TotalReadsColumn)
		}
		t.Rows = append(t.Rows, r)
	}
	if t.Header == nil {
		return t, fmt.Errorf("%s: empty table", filename)
	}
	return t, nil
}

// Totals returns the total reads of each row in file order.
func (t Table) Totals() []int {
	ans := make([]int, len(t.Rows))
	for i := range t.Rows {
		ans[i] = t.Rows[i].TotalReads
	}
	return ans
}

// Sum is the total reads across all amplicons.
func (t Table) Sum() int {
	var ans int
	for i := range t.Rows {
		ans += t.Rows[i].TotalReads
	}
	return ans
}

// Write writes the header and the given rows with their original fields.
func Write(out io.Writer, header []string, rows []Row) error {
	var err error
	if _, err = fmt.Fprintln(out, strings.Join(header, "\t")); err != nil {
		return err
	}
	for i := range rows {
		if _, err = fmt.Fprintln(out, strings.Join(rows[i].Fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes rows to filename with Write.
func WriteFile(filename string, header []string, rows []Row) {
	out := fileio.EasyCreate(filename)
	err := Write(out, header, rows)
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
}

// readable checks filename can be opened before it is handed to fileio, which
// panics on a missing file.
func readable(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	return f.Close()
}

func cleanup(f io.Closer) {
	err := f.Close()
	exception.PanicOnErr(err)
}
