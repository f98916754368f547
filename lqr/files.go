package lqr

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

var digits = regexp.MustCompile(`\d+`)

// SweepValue returns the last integer token in the base name of filename. The
// subsampling step embeds the reads per amplicon value there.
func SweepValue(filename string) (int, error) {
	tokens := digits.FindAllString(filepath.Base(filename), -1)
	if len(tokens) == 0 {
		return 0, &InputFormatError{File: filename, Msg: "no reads per amplicon value in file name"}
	}
	return strconv.Atoi(tokens[len(tokens)-1])
}

// SortBySweepValue orders files by increasing reads per amplicon value. Files
// with equal values keep their relative order.
func SortBySweepValue(files []string) ([]string, error) {
	values := make(map[string]int, len(files))
	var err error
	for _, f := range files {
		if values[f], err = SweepValue(f); err != nil {
			return nil, err
		}
	}
	ans := make([]string, len(files))
	copy(ans, files)
	sort.SliceStable(ans, func(i, j int) bool {
		return values[ans[i]] < values[ans[j]]
	})
	return ans, nil
}

// OutputName derives the LQR file name for a coverage file name by replacing
// "sequtils" with "LQR". Names without "sequtils" get "_LQR" before the extension.
func OutputName(coverageFile string) string {
	base := filepath.Base(coverageFile)
	if strings.Contains(base, "sequtils") {
		return strings.Replace(base, "sequtils", "LQR", 1)
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_LQR" + ext
}

// Result summarizes LQR classification for one coverage file.
type Result struct {
	Input      string
	Output     string
	SweepValue int
	Regions    int
	LQRs       int
	Err        error
}

// Proportion is the percent of regions in the file that are LQRs.
func (r Result) Proportion() float64 {
	return Proportion(r.LQRs, r.Regions)
}

// Proportion returns flagged as a percent of total. Zero regions yields 0.
func Proportion(flagged, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(flagged) / float64(total) * 100
}

// ClassifyFile writes the LQRs of one coverage file to output.
func ClassifyFile(qv float64, input, output string) Result {
	res := Result{Input: input, Output: output}
	res.SweepValue, res.Err = SweepValue(input)
	if res.Err != nil {
		return res
	}
	records, err := ReadCoverage(input)
	if err != nil {
		res.Err = err
		return res
	}
	flagged := Classify(qv, records)
	res.Regions, res.LQRs = len(records), len(flagged)

	out := fileio.EasyCreate(output)
	err = Write(out, flagged)
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
	return res
}

// ClassifyFiles runs ClassifyFile on each input in sweep order, writing outputs
// to outDir. A malformed file is logged and recorded in its Result; the
// remaining files are still processed.
func ClassifyFiles(qv float64, inputs []string, outDir string, verbose int) ([]Result, error) {
	sorted, err := SortBySweepValue(inputs)
	if err != nil {
		return nil, err
	}
	ans := make([]Result, len(sorted))
	for i := range sorted {
		ans[i] = ClassifyFile(qv, sorted[i], filepath.Join(outDir, OutputName(sorted[i])))
		if ans[i].Err != nil {
			log.Printf("ERROR: skipping %s: %s\n", sorted[i], ans[i].Err)
			continue
		}
		if verbose > 0 {
			log.Printf("%s\t%d reads per amplicon\t%d of %d regions are LQRs\n", sorted[i], ans[i].SweepValue, ans[i].LQRs, ans[i].Regions)
		}
	}
	return ans, nil
}

// Proportions returns the LQR percent of each successfully classified result.
func Proportions(results []Result) []float64 {
	var ans []float64
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		ans = append(ans, results[i].Proportion())
	}
	return ans
}

// WriteProportions writes a two column table of reads per amplicon and the
// percent of LQRs for each successfully classified result.
func WriteProportions(out io.Writer, results []Result) error {
	var err error
	if _, err = fmt.Fprintln(out, "Reads per amplicon\tProportion of LQRs"); err != nil {
		return err
	}
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		if _, err = fmt.Fprintf(out, "%d\t%.2f\n", results[i].SweepValue, results[i].Proportion()); err != nil {
			return err
		}
	}
	return nil
}
