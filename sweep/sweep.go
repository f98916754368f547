package sweep

import (
	"fmt"
	"log"
	"math"
)

// Point is one step of a coverage sweep. ReadsPerSample is the total read budget
// needed for ReadsPerAmplicon across the panel and Fraction is the share of the
// source alignment that must be kept to simulate that budget.
type Point struct {
	ReadsPerAmplicon int
	ReadsPerSample   int
	Fraction         float64
}

// Range holds the requested sweep bounds. After Plan returns, Last is the
// effective upper bound and Adjusted reports whether it was lowered to fit the
// number of mapped reads.
type Range struct {
	First         int
	Last          int
	Points        int
	AmpliconCount int
	MappedReads   int
	Correction    float64 // percent of amplification bias added to each reads per sample value

	Requested int // Last as requested, before clamping
	Adjusted  bool
}

// ConfigurationError reports a sweep range that cannot be planned.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "invalid sweep configuration: " + e.Msg
}

// RangeAdjustment is the notice emitted when the upper bound of a sweep is
// lowered to the number of reads available per amplicon.
type RangeAdjustment struct {
	Requested int
	Effective int
}

func (r RangeAdjustment) String() string {
	return fmt.Sprintf("The last point (maximum number of reads per amplicon) was changed from %d to %d", r.Requested, r.Effective)
}

func configErr(format string, a ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, a...)}
}

// Validate checks r for values that make a sweep meaningless. It does not clamp.
func (r Range) Validate() error {
	switch {
	case r.Last <= r.First:
		return configErr("last point (%d) is less than or equal to the first point (%d)", r.Last, r.First)
	case r.Points < 2:
		return configErr("number of points must be >= 2, got %d", r.Points)
	case r.AmpliconCount < 1:
		return configErr("number of amplicons must be >= 1, got %d", r.AmpliconCount)
	case r.MappedReads < 1:
		return configErr("number of mapped reads must be >= 1, got %d", r.MappedReads)
	case r.First < 1:
		return configErr("first point must be >= 1, got %d", r.First)
	case r.Correction <= -100:
		return configErr("correction must be > -100%%, got %g", r.Correction)
	}
	return nil
}

// Clamp lowers Last to MappedReads / AmpliconCount when fewer reads are available
// than the sweep would request. The returned adjustment is nil when nothing changed.
// Requested keeps the first Last seen so a replanned Range still reports it.
func (r *Range) Clamp() *RangeAdjustment {
	if r.Requested == 0 {
		r.Requested = r.Last
	}
	available := r.MappedReads / r.AmpliconCount
	if available >= r.Last {
		return nil
	}
	r.Last = available
	r.Adjusted = true
	return &RangeAdjustment{Requested: r.Requested, Effective: available}
}

// Step is the floor-divided spacing between consecutive sweep values.
func Step(first, last, points int) int {
	return (last - first) / (points - 1)
}

// Values returns exactly points reads per amplicon values starting at first and
// spaced by Step. When the step floors to zero the values repeat.
func Values(first, last, points int) []int {
	step := Step(first, last, points)
	ans := make([]int, points)
	for i := range ans {
		ans[i] = first + i*step
	}
	return ans
}

// ReadsPerSample scales reads per amplicon to the panel, applying the correction
// percent when it is non-zero.
func ReadsPerSample(readsPerAmplicon, ampliconCount int, correction float64) int {
	total := readsPerAmplicon * ampliconCount
	if correction == 0 {
		return total
	}
	return int(math.Round(float64(total) * (1 + correction/100)))
}

// Plan computes the sweep for r. Configuration problems are returned before any
// clamping takes place; a clamp is logged and recorded in r.
func Plan(r *Range) ([]Point, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if adj := r.Clamp(); adj != nil {
		log.Println(adj)
		if r.Last <= r.First {
			return nil, configErr("only %d reads per amplicon are available, which is not above the first point (%d)", r.Last, r.First)
		}
	}

	values := Values(r.First, r.Last, r.Points)
	points := make([]Point, len(values))
	var capped int
	for i := range values {
		points[i].ReadsPerAmplicon = values[i]
		points[i].ReadsPerSample = ReadsPerSample(values[i], r.AmpliconCount, r.Correction)
		points[i].Fraction = float64(points[i].ReadsPerSample) / float64(r.MappedReads)
		if points[i].Fraction > 1 {
			points[i].Fraction = 1
			capped++
		}
	}
	if capped > 0 {
		log.Printf("WARNING: %d sweep point(s) requested more reads than mapped after a %g%% correction; subsampling fraction capped at 1\n", capped, r.Correction)
	}
	return points, nil
}
