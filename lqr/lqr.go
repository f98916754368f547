// Package lqr identifies low quality regions (LQRs) in per-region dual-strand
// coverage files. A region is an LQR when either strand fails to reach the
// quality threshold.
package lqr

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// minFields is the number of columns a coverage record must have. Columns 0, 1,
// 2, 4, and 5 are used; column 3 and anything after column 5 is ignored.
const minFields int = 6

// Record is one region from a coverage file. Start and Stop are 0-based and
// half-open. The coverage values keep the text they were read from so that
// flagged records are written back unchanged.
type Record struct {
	Contig  string
	Start   int
	Stop    int
	Forward float64
	Reverse float64

	fwdText string
	revText string
}

// InputFormatError is returned for a coverage file that cannot be parsed. No
// records from the file are used when it occurs.
type InputFormatError struct {
	File string
	Line int
	Msg  string
}

func (e *InputFormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed coverage file %s: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("malformed coverage file %s: line %d: %s", e.File, e.Line, e.Msg)
}

// IsLQR reports whether r fails the quality threshold qv. The forward strand is
// tested first; a forward strand at or above qv does not exempt the region when
// the reverse strand is below qv.
func IsLQR(r Record, qv float64) bool {
	return r.Forward < qv || (r.Forward >= qv && r.Reverse < qv)
}

// Classify returns the records that fail qv, in input order.
func Classify(qv float64, records []Record) []Record {
	var ans []Record
	for i := range records {
		if IsLQR(records[i], qv) {
			ans = append(ans, records[i])
		}
	}
	return ans
}

// ReadCoverage parses every record in a coverage file. Any malformed line is an
// InputFormatError for the whole file; its Line counts every line of the file,
// comments included. Lines beginning with '#' are skipped.
func ReadCoverage(filename string) ([]Record, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &InputFormatError{File: filename, Msg: err.Error()}
	}
	cleanup(f)
	file := fileio.EasyOpen(filename)
	defer cleanup(file)

	var records []Record
	var curr Record
	var line string
	var done bool
	var lineNum int
	for line, done = fileio.EasyNextLine(file); !done; line, done = fileio.EasyNextLine(file) {
		lineNum++
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		curr, err = parseRecord(line)
		if err != nil {
			return nil, &InputFormatError{File: filename, Line: lineNum, Msg: err.Error()}
		}
		records = append(records, curr)
	}
	return records, nil
}

func parseRecord(line string) (Record, error) {
	var r Record
	var err error
	words := strings.Fields(line)
	if len(words) < minFields {
		return r, fmt.Errorf("expected at least %d fields, found %d", minFields, len(words))
	}
	r.Contig = words[0]
	if r.Start, err = strconv.Atoi(words[1]); err != nil {
		return r, fmt.Errorf("start %q is not an integer", words[1])
	}
	if r.Stop, err = strconv.Atoi(words[2]); err != nil {
		return r, fmt.Errorf("stop %q is not an integer", words[2])
	}
	if r.Forward, err = strconv.ParseFloat(words[4], 64); err != nil {
		return r, fmt.Errorf("forward coverage %q is not a number", words[4])
	}
	if r.Reverse, err = strconv.ParseFloat(words[5], 64); err != nil {
		return r, fmt.Errorf("reverse coverage %q is not a number", words[5])
	}
	r.fwdText, r.revText = words[4], words[5]
	return r, nil
}

// String formats r as an LQR output line. Stop is written as a closed coordinate.
func (r Record) String() string {
	fwd, rev := r.fwdText, r.revText
	if fwd == "" {
		fwd = strconv.FormatFloat(r.Forward, 'g', -1, 64)
	}
	if rev == "" {
		rev = strconv.FormatFloat(r.Reverse, 'g', -1, 64)
	}
	return fmt.Sprintf("%s\t%d\t%d\t%s\t%s", r.Contig, r.Start, r.Stop+1, fwd, rev)
}

// Write writes one tab-separated line per record.
func Write(out io.Writer, records []Record) error {
	var err error
	for i := range records {
		if _, err = fmt.Fprintln(out, records[i]); err != nil {
			return err
		}
	}
	return nil
}

func cleanup(f io.Closer) {
	err := f.Close()
	exception.PanicOnErr(err)
}
