package sweep

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/sam"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ParamsFile is the default name of the sweep parameters file.
const ParamsFile string = "subsampling_params.json"

// Params maps reads per amplicon to subsampling fraction. Repeated reads per
// amplicon values collapse to a single entry.
func Params(points []Point) map[int]float64 {
	m := make(map[int]float64, len(points))
	for i := range points {
		m[points[i].ReadsPerAmplicon] = points[i].Fraction
	}
	return m
}

// WriteParams writes the sweep parameters as a JSON object keyed by reads per
// amplicon in ascending order, e.g. {"100": 0.0181, "280": 0.05068}.
func WriteParams(out io.Writer, points []Point) error {
	m := Params(points)
	keys := maps.Keys(m)
	slices.Sort(keys)

	s := new(strings.Builder)
	s.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			s.WriteString(", ")
		}
		fmt.Fprintf(s, "\"%d\": %s", k, strconv.FormatFloat(m[k], 'g', -1, 64))
	}
	s.WriteByte('}')
	_, err := io.WriteString(out, s.String())
	return err
}

// WriteParamsFile writes the sweep parameters to filename. "stdout" is accepted.
func WriteParamsFile(filename string, points []Point) {
	out := fileio.EasyCreate(filename)
	err := WriteParams(out, points)
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
}

// ReadParams reads a sweep parameters file and returns the points it describes
// in ascending reads per amplicon order. ReadsPerSample is not stored in the file
// and is left at zero.
func ReadParams(filename string) ([]Point, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading sweep parameters")
	}
	var raw map[string]float64
	if err = json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrapf(err, "malformed sweep parameters file %s", filename)
	}

	points := make([]Point, 0, len(raw))
	var rpa int
	for k, v := range raw {
		rpa, err = strconv.Atoi(k)
		if err != nil {
			return nil, errors.Errorf("malformed sweep parameters file %s: key %q is not an integer", filename, k)
		}
		if v <= 0 || v > 1 {
			return nil, errors.Errorf("malformed sweep parameters file %s: fraction %g for %d is outside (0,1]", filename, v, rpa)
		}
		points = append(points, Point{ReadsPerAmplicon: rpa, Fraction: v})
	}
	sortPoints(points)
	return points, nil
}

func sortPoints(points []Point) {
	keys := make([]int, len(points))
	byKey := make(map[int]Point, len(points))
	for i := range points {
		keys[i] = points[i].ReadsPerAmplicon
		byKey[keys[i]] = points[i]
	}
	slices.Sort(keys)
	for i := range keys {
		points[i] = byKey[keys[i]]
	}
}

// CountMappedReads counts the alignments in a sam or bam file that do not carry
// the unmapped flag. It matches `samtools view -c -F 4`.
func CountMappedReads(alignmentFile string) (int, error) {
	f, err := os.Open(alignmentFile)
	if err != nil {
		return 0, errors.Wrapf(err, "counting mapped reads")
	}
	err = f.Close()
	exception.PanicOnErr(err)

	reads, _ := sam.GoReadToChan(alignmentFile)
	var mapped int
	for r := range reads {
		if sam.IsUnmapped(r) {
			continue
		}
		mapped++
	}
	return mapped, nil
}
