package outlier

import (
	"log"
	"path/filepath"

	"github.com/dasnellings/panelTools/amplicon"
	"github.com/grailbio/base/traverse"
)

// SampleReport is the outcome of Batch for one input table. Err is set when the
// sample was skipped.
type SampleReport struct {
	Input      string
	Sample     string
	Result     Result
	UnderFile  string
	OverFile   string
	ScatterPNG string
	Err        error
}

// BatchOptions configure Batch.
type BatchOptions struct {
	Options
	OutDir       string
	Plot         bool
	FigureWidth  float64 // inches
	FigureHeight float64 // inches
	Verbose      int
}

// UnderName and OverName are the output table names for a sample.
func UnderName(sample string) string { return sample + "_undercovered_amplicons.txt" }
func OverName(sample string) string  { return sample + "_overcovered_amplicons.txt" }

// ScatterName is the scatter plot name for a sample.
func ScatterName(sample string) string { return sample + "_amplicon_coverage_scatterplot.png" }

// Batch runs Detect on each input table concurrently. Each sample writes only
// its own outputs. A sample that cannot be read, fit, or plotted is logged and
// reported; it never stops the other samples.
func Batch(inputs []string, opts BatchOptions) []SampleReport {
	reports := make([]SampleReport, len(inputs))
	_ = traverse.Each(len(inputs), func(i int) error {
		reports[i] = runSample(inputs[i], opts)
		if reports[i].Err != nil {
			log.Printf("WARNING: skipping %s: %s\n", inputs[i], reports[i].Err)
		} else if opts.Verbose > 0 {
			log.Printf("%s\tR2=%.4f\tundercovered=%d\tovercovered=%d\n", reports[i].Sample, reports[i].Result.R2, len(reports[i].Result.Under), len(reports[i].Result.Over))
		}
		return nil
	})
	return reports
}

func runSample(input string, opts BatchOptions) SampleReport {
	rep := SampleReport{Input: input}
	t, err := amplicon.Read(input)
	rep.Sample = t.Sample
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Result, rep.Err = Detect(t, opts.Options)
	if rep.Err != nil {
		return rep
	}

	rep.UnderFile = filepath.Join(opts.OutDir, UnderName(t.Sample))
	rep.OverFile = filepath.Join(opts.OutDir, OverName(t.Sample))
	amplicon.WriteFile(rep.UnderFile, t.Header, Rows(t, rep.Result.Under))
	amplicon.WriteFile(rep.OverFile, t.Header, Rows(t, rep.Result.Over))

	if opts.Plot {
		rep.ScatterPNG = filepath.Join(opts.OutDir, ScatterName(t.Sample))
		rep.Err = Scatter(rep.Result, rep.ScatterPNG, opts.FigureWidth, opts.FigureHeight)
	}
	return rep
}
