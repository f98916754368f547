// Package pipeline runs the coverage sweep for a manifest of samples: plan the
// sweep, subsample each sample's alignment once per sweep point, compute region
// coverage of each subsampled alignment, classify LQRs, and build the coverage
// table. Every external process is awaited, and its output checked, before the
// stage that reads it begins.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dasnellings/panelTools/amplicon"
	"github.com/dasnellings/panelTools/coverage"
	"github.com/dasnellings/panelTools/lqr"
	"github.com/dasnellings/panelTools/sweep"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"
	"github.com/vertgenlab/gonomics/bed"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// Config holds the run-wide settings.
type Config struct {
	First         int
	Last          int
	Points        int
	AmpliconCount int    // counted from Targets when 0
	Targets       string // bed file of panel target regions
	Correction    float64
	Quality       float64
	OutDir        string

	Subsampler   Subsampler
	CoverageTool CoverageTool
	Readiness    Readiness

	Plot    bool
	Verbose int
}

// Validate checks the settings that do not depend on any sample. A failure here
// aborts the run before anything is read or launched.
func (c *Config) Validate() error {
	r := sweep.Range{First: c.First, Last: c.Last, Points: c.Points, AmpliconCount: 1, MappedReads: 1, Correction: c.Correction}
	if c.AmpliconCount > 0 {
		r.AmpliconCount = c.AmpliconCount
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if c.Targets == "" {
		return &sweep.ConfigurationError{Msg: "a target regions bed file is required"}
	}
	if c.OutDir == "" {
		return &sweep.ConfigurationError{Msg: "an output directory is required"}
	}
	if c.Subsampler == nil || c.CoverageTool == nil {
		return &sweep.ConfigurationError{Msg: "subsampler and coverage tool must be set"}
	}
	return nil
}

// CountAmplicons returns the number of regions in a targets bed file.
func CountAmplicons(targets string) int {
	return len(bed.Read(targets))
}

// PointStatus tracks one sweep point of one sample through the stages.
type PointStatus struct {
	Point    sweep.Point
	Bam      string
	Coverage string
	LQR      lqr.Result
	Err      error
}

// Done reports whether the point made it through every stage.
func (p PointStatus) Done() bool {
	return p.Err == nil && p.LQR.Output != "" && p.LQR.Err == nil
}

// Report is the outcome of Run for one sample.
type Report struct {
	Sample      string
	Range       sweep.Range
	Params      string
	Points      []PointStatus
	Aborted     error // launch failure that stopped the remaining points
	Proportions string
	Table       string
	Matrix      coverage.Matrix
	Err         error // failure of the whole sample
}

// Completed returns the points that made it through every stage.
func (r Report) Completed() []PointStatus {
	var ans []PointStatus
	for i := range r.Points {
		if r.Points[i].Done() {
			ans = append(ans, r.Points[i])
		}
	}
	return ans
}

// Run processes every sample in m concurrently. Only a configuration error is
// returned; failures of one sample or one sweep point are recorded in its
// Report and logged.
func Run(ctx context.Context, cfg Config, m Manifest) ([]Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if cfg.AmpliconCount == 0 {
		if _, err := os.Stat(cfg.Targets); err != nil {
			return nil, &sweep.ConfigurationError{Msg: err.Error()}
		}
		cfg.AmpliconCount = CountAmplicons(cfg.Targets)
		if cfg.AmpliconCount == 0 {
			return nil, &sweep.ConfigurationError{Msg: fmt.Sprintf("no target regions found in %s", cfg.Targets)}
		}
		log.Printf("found %d amplicons in %s\n", cfg.AmpliconCount, cfg.Targets)
	}
	err := os.MkdirAll(cfg.OutDir, 0755)
	exception.PanicOnErr(err)

	reports := make([]Report, len(m.Samples))
	_ = traverse.Each(len(m.Samples), func(i int) error {
		reports[i] = runSample(ctx, cfg, m.Samples[i])
		if reports[i].Err != nil {
			log.Printf("ERROR: sample %s failed: %s\n", m.Samples[i].Name, reports[i].Err)
		}
		return nil
	})
	return reports, nil
}

func runSample(ctx context.Context, cfg Config, s Sample) Report {
	rep := Report{Sample: s.Name}

	mapped := s.MappedReads
	if mapped == 0 {
		var err error
		if mapped, err = sweep.CountMappedReads(s.Bam); err != nil {
			rep.Err = errors.Wrapf(err, "sample %s", s.Name)
			return rep
		}
		if cfg.Verbose > 0 {
			log.Printf("%s: %d mapped reads\n", s.Name, mapped)
		}
	}

	rep.Range = sweep.Range{
		First:         cfg.First,
		Last:          cfg.Last,
		Points:        cfg.Points,
		AmpliconCount: cfg.AmpliconCount,
		MappedReads:   mapped,
		Correction:    cfg.Correction,
	}
	points, err := sweep.Plan(&rep.Range)
	if err != nil {
		rep.Err = errors.Wrapf(err, "planning sweep for %s", s.Name)
		return rep
	}
	rep.Params = filepath.Join(cfg.OutDir, s.Name+"_"+sweep.ParamsFile)
	sweep.WriteParamsFile(rep.Params, points)

	rep.Points = uniquePoints(points)
	for i := range rep.Points {
		rep.Points[i].Bam = filepath.Join(cfg.OutDir, fmt.Sprintf("%s_sub_%d.bam", s.Name, rep.Points[i].Point.ReadsPerAmplicon))
		rep.Points[i].Coverage = filepath.Join(cfg.OutDir, fmt.Sprintf("%s_sub_%d_sequtils.bed", s.Name, rep.Points[i].Point.ReadsPerAmplicon))
	}

	// Points subsampled before a launch failure still go through the later
	// stages so they can be reported.
	rep.Aborted = subsampleStage(ctx, cfg, s, rep.Points)
	if err = coverageStage(ctx, cfg, rep.Points); rep.Aborted == nil {
		rep.Aborted = err
	}
	if rep.Aborted != nil {
		log.Printf("WARNING: %s: %s; remaining sweep points were not launched\n", s.Name, rep.Aborted)
	}

	classifyStage(cfg, &rep)
	if rep.Err != nil {
		return rep
	}

	done := rep.Completed()
	if len(done) == 0 {
		rep.Err = errors.New("no sweep point completed")
		return rep
	}
	if cfg.Verbose > 0 {
		log.Printf("%s: %d of %d sweep points completed\n", s.Name, len(done), len(rep.Points))
	}

	rep.Matrix, err = aggregate(cfg, s, rep.Range)
	if err != nil {
		rep.Err = errors.Wrapf(err, "building coverage table for %s", s.Name)
		return rep
	}
	rep.Table = filepath.Join(cfg.OutDir, s.Name+"_coverage_table.txt")
	rep.Matrix.WriteFile(rep.Table)
	if cfg.Plot {
		if err = coverage.Heatmap(rep.Matrix, filepath.Join(cfg.OutDir, s.Name+"_heatmap_coverage.png")); err != nil {
			log.Printf("WARNING: %s: could not plot coverage heatmap: %s\n", s.Name, err)
		}
	}
	return rep
}

// uniquePoints drops repeated reads per amplicon values so each subsampled
// file is written once.
func uniquePoints(points []sweep.Point) []PointStatus {
	var ans []PointStatus
	seen := make(map[int]bool)
	for i := range points {
		if seen[points[i].ReadsPerAmplicon] {
			continue
		}
		seen[points[i].ReadsPerAmplicon] = true
		ans = append(ans, PointStatus{Point: points[i]})
	}
	return ans
}

type launched struct {
	idx  int
	job  Job
	tool string
	out  string
}

// awaitAll waits for every launched job, then for its output file, recording
// failures on the matching point.
func awaitAll(ctx context.Context, cfg Config, jobs []launched, points []PointStatus) {
	var err error
	for _, j := range jobs {
		if err = j.job.Wait(); err == nil {
			err = WaitForOutput(ctx, j.tool, j.out, cfg.Readiness)
		}
		if err != nil {
			points[j.idx].Err = err
			log.Printf("WARNING: skipping %d reads per amplicon: %s\n", points[j.idx].Point.ReadsPerAmplicon, err)
		}
	}
}

// subsampleStage launches one subsampler per point and blocks until all of them
// finish. A launch failure stops further launches and marks the unlaunched
// points; the processes already started are still awaited.
func subsampleStage(ctx context.Context, cfg Config, s Sample, points []PointStatus) error {
	var jobs []launched
	var abort error
	for i := range points {
		if abort != nil {
			points[i].Err = abort
			continue
		}
		job, err := cfg.Subsampler.Subsample(ctx, s.Bam, points[i].Point.Fraction, points[i].Bam)
		if err != nil {
			abort = asLaunchError("subsampler", err)
			points[i].Err = abort
			continue
		}
		jobs = append(jobs, launched{idx: i, job: job, tool: "subsampler", out: points[i].Bam})
	}
	awaitAll(ctx, cfg, jobs, points)
	return abort
}

// coverageStage runs the coverage tool on every successfully subsampled point.
func coverageStage(ctx context.Context, cfg Config, points []PointStatus) error {
	var jobs []launched
	var abort error
	for i := range points {
		if points[i].Err != nil {
			continue
		}
		if abort != nil {
			points[i].Err = abort
			continue
		}
		job, err := cfg.CoverageTool.Regions(ctx, cfg.Targets, points[i].Bam, points[i].Coverage)
		if err != nil {
			abort = asLaunchError("coverage tool", err)
			points[i].Err = abort
			continue
		}
		jobs = append(jobs, launched{idx: i, job: job, tool: "coverage tool", out: points[i].Coverage})
	}
	awaitAll(ctx, cfg, jobs, points)
	return abort
}

func asLaunchError(tool string, err error) error {
	var le *LaunchError
	if errors.As(err, &le) {
		return le
	}
	return &LaunchError{Tool: tool, Err: err}
}

// classifyStage finds LQRs in each finished coverage file in sweep order and
// writes the LQR proportion table.
func classifyStage(cfg Config, rep *Report) {
	var files []string
	idx := make(map[string]int)
	for i := range rep.Points {
		if rep.Points[i].Err != nil {
			continue
		}
		files = append(files, rep.Points[i].Coverage)
		idx[rep.Points[i].Coverage] = i
	}
	if len(files) == 0 {
		return
	}
	results, err := lqr.ClassifyFiles(cfg.Quality, files, cfg.OutDir, cfg.Verbose)
	if err != nil {
		rep.Err = errors.Wrap(err, "classifying LQRs")
		return
	}
	for _, res := range results {
		rep.Points[idx[res.Input]].LQR = res
	}

	rep.Proportions = filepath.Join(cfg.OutDir, rep.Sample+"_LQR_proportion.txt")
	out := fileio.EasyCreate(rep.Proportions)
	err = lqr.WriteProportions(out, results)
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)

	if cfg.Verbose > 1 {
		log.Printf("%s LQR proportions\n%s\n", rep.Sample, lqr.AsciiPlot(results))
	}
	if cfg.Plot {
		if err = lqr.PlotProportions(results, filepath.Join(cfg.OutDir, rep.Sample+"_LQR_proportion_plot.png")); err != nil {
			log.Printf("WARNING: %s: could not plot LQR proportions: %s\n", rep.Sample, err)
		}
	}
}

// aggregate builds the coverage table from the sample's amplicon tables when it
// has any, and from the analytic model otherwise.
func aggregate(cfg Config, s Sample, r sweep.Range) (coverage.Matrix, error) {
	rows := sweep.Values(r.First, r.Last, r.Points)
	if len(s.AmpliconTables) == 0 {
		return coverage.Analytic{Rows: rows, AmpliconCount: r.AmpliconCount, Correction: r.Correction}.Aggregate()
	}
	e := coverage.Empirical{Rows: rows, AmpliconCount: r.AmpliconCount}
	for _, file := range s.AmpliconTables {
		t, err := amplicon.Read(file)
		if err != nil {
			return coverage.Matrix{}, err
		}
		e.Samples = append(e.Samples, coverage.ColumnFromTable(t))
	}
	return e.Aggregate()
}
