// Package outlier finds amplicons whose share of a sample's reads departs from
// the panel-wide trend. Amplicons are ranked by relative share, a line is fit to
// share against rank, and amplicons far below or above the line are reported.
package outlier

import (
	"fmt"
	"math"
	"sort"

	"github.com/dasnellings/panelTools/amplicon"
	"gonum.org/v1/gonum/stat"
)

// Options control the fit quality gate and the classification ratios.
type Options struct {
	Threshold  float64 // minimum R squared of the baseline fit
	UnderRatio float64 // observed:predicted ratio below which an amplicon is undercovered
	OverRatio  float64 // observed:predicted ratio above which an amplicon is overcovered
}

// DefaultOptions returns the thresholds used when none are given.
func DefaultOptions() Options {
	return Options{Threshold: 0.85, UnderRatio: 0.5, OverRatio: 1.3}
}

// Validate rejects option combinations that cannot classify anything sensibly.
func (o Options) Validate() error {
	switch {
	case o.Threshold < 0 || o.Threshold > 1:
		return fmt.Errorf("R2 threshold must be within [0,1], got %g", o.Threshold)
	case o.UnderRatio < 0:
		return fmt.Errorf("under ratio must be >= 0, got %g", o.UnderRatio)
	case o.OverRatio < o.UnderRatio:
		return fmt.Errorf("over ratio (%g) must not be below under ratio (%g)", o.OverRatio, o.UnderRatio)
	}
	return nil
}

// Class is the coverage classification of an amplicon.
type Class int

const (
	Nominal Class = iota
	Undercovered
	Overcovered
)

// Classify places an observed:predicted ratio into a Class.
func (o Options) Classify(ratio float64) Class {
	switch {
	case ratio < o.UnderRatio:
		return Undercovered
	case ratio > o.OverRatio:
		return Overcovered
	default:
		return Nominal
	}
}

// Profile is one amplicon's place in the baseline fit.
type Profile struct {
	Index      int // row in the input table
	ID         string
	TotalReads int
	Share      float64
	Rank       int
	Predicted  float64
	Ratio      float64
}

// Result holds the fitted baseline for one sample.
type Result struct {
	Sample   string
	Profiles []Profile // ordered by rank
	Alpha    float64   // intercept
	Beta     float64   // slope
	R2       float64
	Under    []Profile // in input order
	Over     []Profile // in input order
}

// FitError is returned when no baseline can be fit for a sample.
type FitError struct {
	Sample string
	Msg    string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("could not fit baseline for %s: %s", e.Sample, e.Msg)
}

// FitQualityError is returned when the baseline fit is too poor for the
// deviation ratios to mean anything.
type FitQualityError struct {
	Sample    string
	R2        float64
	Threshold float64
}

func (e *FitQualityError) Error() string {
	return fmt.Sprintf("R2 for %s coverage results (%.4f) is less than threshold %g", e.Sample, e.R2, e.Threshold)
}

// Profiles computes each amplicon's relative share and rank. The returned slice
// is sorted by ascending share; ties keep input order.
func Profiles(t amplicon.Table) ([]Profile, error) {
	if len(t.Rows) < 2 {
		return nil, &FitError{Sample: t.Sample, Msg: fmt.Sprintf("need at least 2 amplicons, found %d", len(t.Rows))}
	}
	sum := t.Sum()
	if sum == 0 {
		return nil, &FitError{Sample: t.Sample, Msg: "no reads in any amplicon"}
	}
	ans := make([]Profile, len(t.Rows))
	for i := range t.Rows {
		ans[i] = Profile{
			Index:      i,
			ID:         t.Rows[i].ID,
			TotalReads: t.Rows[i].TotalReads,
			Share:      float64(t.Rows[i].TotalReads) / float64(sum),
		}
	}
	sort.SliceStable(ans, func(i, j int) bool {
		return ans[i].Share < ans[j].Share
	})
	for i := range ans {
		ans[i].Rank = i
	}
	return ans, nil
}

// Fit regresses share on rank. A sample where every amplicon has the same share
// is fit exactly and reports an R squared of 1.
func Fit(profiles []Profile) (alpha, beta, r2 float64) {
	x := make([]float64, len(profiles))
	y := make([]float64, len(profiles))
	for i := range profiles {
		x[i] = float64(profiles[i].Rank)
		y[i] = profiles[i].Share
	}
	if flat(y) {
		return y[0], 0, 1
	}
	alpha, beta = stat.LinearRegression(x, y, nil, false)
	r2 = stat.RSquared(x, y, nil, alpha, beta)
	return alpha, beta, r2
}

func flat(y []float64) bool {
	for i := range y {
		if y[i] != y[0] {
			return false
		}
	}
	return true
}

// Detect fits the baseline for one sample and classifies its amplicons.
func Detect(t amplicon.Table, opts Options) (Result, error) {
	res := Result{Sample: t.Sample}
	profiles, err := Profiles(t)
	if err != nil {
		return res, err
	}

	res.Alpha, res.Beta, res.R2 = Fit(profiles)
	if math.IsNaN(res.R2) || math.IsInf(res.R2, 0) {
		return res, &FitError{Sample: t.Sample, Msg: "regression did not converge"}
	}
	if res.R2 < opts.Threshold {
		return res, &FitQualityError{Sample: t.Sample, R2: res.R2, Threshold: opts.Threshold}
	}

	for i := range profiles {
		profiles[i].Predicted = res.Alpha + res.Beta*float64(profiles[i].Rank)
		profiles[i].Ratio = math.Abs(profiles[i].Share / profiles[i].Predicted)
		switch opts.Classify(profiles[i].Ratio) {
		case Undercovered:
			res.Under = append(res.Under, profiles[i])
		case Overcovered:
			res.Over = append(res.Over, profiles[i])
		}
	}
	res.Profiles = profiles
	byIndex(res.Under)
	byIndex(res.Over)
	return res, nil
}

func byIndex(p []Profile) {
	sort.Slice(p, func(i, j int) bool {
		return p[i].Index < p[j].Index
	})
}

// Rows returns the table rows for the given profiles.
func Rows(t amplicon.Table, p []Profile) []amplicon.Row {
	ans := make([]amplicon.Row, len(p))
	for i := range p {
		ans[i] = t.Rows[p[i].Index]
	}
	return ans
}
