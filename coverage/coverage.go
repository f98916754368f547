// Package coverage builds reads per amplicon by reads per sample coverage tables.
// Each cell is the percent of a panel's amplicons expected (Analytic) or
// observed (Empirical) to reach the row's reads per amplicon.
package coverage

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dasnellings/panelTools/amplicon"
	"github.com/dasnellings/panelTools/sweep"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/numbers"
)

// Matrix is a coverage table. Rows and Cols hold the literal boundary values used
// as labels; Cells[i][j] is the percent for Rows[i] and Cols[j].
type Matrix struct {
	Rows      []int
	Cols      []int
	Cells     [][]float64
	Precision int // decimal places written for each cell
}

// Aggregator builds a coverage Matrix.
type Aggregator interface {
	Aggregate() (Matrix, error)
}

func newMatrix(rows, cols []int, precision int) Matrix {
	m := Matrix{Rows: rows, Cols: cols, Precision: precision}
	m.Cells = make([][]float64, len(rows))
	for i := range m.Cells {
		m.Cells[i] = make([]float64, len(cols))
	}
	return m
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Analytic models coverage assuming reads are spread evenly across amplicons.
type Analytic struct {
	Rows          []int   // reads per amplicon, ascending
	AmpliconCount int
	Correction    float64 // percent applied to column reads per sample values
}

// Columns returns the reads per sample values for a, evenly spaced from the
// first to the last row times the number of amplicons.
func (a Analytic) Columns() []int {
	n := len(a.Rows)
	first := a.Rows[0] * a.AmpliconCount
	last := a.Rows[n-1] * a.AmpliconCount
	step := sweep.Step(first, last, n)
	cols := make([]int, n)
	for j := range cols {
		cols[j] = first + j*step
		if a.Correction != 0 {
			cols[j] = int(math.Round(float64(cols[j]) * (1 + a.Correction/100)))
		}
	}
	return cols
}

// Cell is the expected percent of amplicons with at least row reads when col
// reads are sequenced. Values above 100 saturate at 100.
func (a Analytic) Cell(row, col int) float64 {
	v := float64(col) / float64(a.AmpliconCount*row) * 100
	if v >= 100 {
		return 100
	}
	return round(v, 2)
}

// Aggregate satisfies Aggregator.
func (a Analytic) Aggregate() (Matrix, error) {
	if len(a.Rows) < 2 {
		return Matrix{}, errors.New("analytic coverage table needs at least 2 rows")
	}
	if a.AmpliconCount < 1 {
		return Matrix{}, errors.New("number of amplicons must be >= 1")
	}
	if a.Rows[0] < 1 {
		return Matrix{}, fmt.Errorf("reads per amplicon must be >= 1, got %d", a.Rows[0])
	}
	m := newMatrix(a.Rows, a.Columns(), 2)
	for i := range m.Rows {
		for j := range m.Cols {
			m.Cells[i][j] = a.Cell(m.Rows[i], m.Cols[j])
		}
	}
	return m, nil
}

// Column is one sample's observed total reads per amplicon. Label is written
// as the column header.
type Column struct {
	Label  int
	Totals []int
}

// ColumnFromTable labels a sample's totals with its reads per sample.
func ColumnFromTable(t amplicon.Table) Column {
	return Column{Label: t.Sum(), Totals: t.Totals()}
}

// Empirical counts, for each row, the amplicons in each sample with at least
// that many reads.
type Empirical struct {
	Rows          []int
	AmpliconCount int
	Samples       []Column
}

// Aggregate satisfies Aggregator.
func (e Empirical) Aggregate() (Matrix, error) {
	if len(e.Rows) == 0 || len(e.Samples) == 0 {
		return Matrix{}, errors.New("empirical coverage table needs at least one row and one sample")
	}
	if e.AmpliconCount < 1 {
		return Matrix{}, errors.New("number of amplicons must be >= 1")
	}
	cols := make([]int, len(e.Samples))
	for j := range e.Samples {
		cols[j] = e.Samples[j].Label
	}
	m := newMatrix(e.Rows, cols, 0)
	var reached int
	for i := range m.Rows {
		for j := range e.Samples {
			reached = 0
			for _, total := range e.Samples[j].Totals {
				if total >= m.Rows[i] {
					reached++
				}
			}
			m.Cells[i][j] = math.Round(float64(reached) / float64(e.AmpliconCount) * 100)
		}
	}
	return m, nil
}

// Write writes m as a tab-separated table. The first line holds the column
// labels after an empty corner cell and each following line starts with its
// row label.
func (m Matrix) Write(out io.Writer) error {
	s := new(strings.Builder)
	for j := range m.Cols {
		s.WriteByte('\t')
		s.WriteString(strconv.Itoa(m.Cols[j]))
	}
	s.WriteByte('\n')
	for i := range m.Rows {
		s.WriteString(strconv.Itoa(m.Rows[i]))
		for j := range m.Cols {
			s.WriteByte('\t')
			s.WriteString(strconv.FormatFloat(m.Cells[i][j], 'f', m.Precision, 64))
		}
		s.WriteByte('\n')
	}
	_, err := io.WriteString(out, s.String())
	return err
}

// WriteFile writes m to filename. "stdout" is accepted.
func (m Matrix) WriteFile(filename string) {
	out := fileio.EasyCreate(filename)
	err := m.Write(out)
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
}

// ReadMatrix reads a table written by Matrix.Write.
func ReadMatrix(filename string) (Matrix, error) {
	var m Matrix
	f, err := os.Open(filename)
	if err != nil {
		return m, err
	}
	err = f.Close()
	exception.PanicOnErr(err)
	lines := fileio.Read(filename)
	var words []string
	var val int
	for n, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		words = strings.Split(line, "\t")
		if m.Cols == nil {
			for _, w := range words[1:] {
				if val, err = strconv.Atoi(w); err != nil {
					return m, fmt.Errorf("%s: column label %q is not an integer", filename, w)
				}
				m.Cols = append(m.Cols, val)
			}
			continue
		}
		if len(words) != len(m.Cols)+1 {
			return m, fmt.Errorf("%s: line %d has %d fields, expected %d", filename, n+1, len(words), len(m.Cols)+1)
		}
		if val, err = strconv.Atoi(words[0]); err != nil {
			return m, fmt.Errorf("%s: row label %q is not an integer", filename, words[0])
		}
		row := make([]float64, len(m.Cols))
		for j, w := range words[1:] {
			if row[j], err = strconv.ParseFloat(w, 64); err != nil {
				return m, fmt.Errorf("%s: line %d: %q is not a number", filename, n+1, w)
			}
			if idx := strings.IndexByte(w, '.'); idx >= 0 {
				m.Precision = numbers.Max(m.Precision, len(w)-idx-1)
			}
		}
		m.Rows = append(m.Rows, val)
		m.Cells = append(m.Cells, row)
	}
	if m.Cols == nil {
		return m, fmt.Errorf("%s: empty coverage table", filename)
	}
	return m, nil
}
