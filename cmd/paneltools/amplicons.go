package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dasnellings/panelTools/outlier"
	"github.com/vertgenlab/gonomics/exception"
)

func ampliconsUsage(ampliconsFlags *flag.FlagSet) {
	fmt.Print(
		"amplicons - report amplicons whose coverage departs from the panel-wide trend\n" +
			"\tAmplicons are ranked by their share of the sample's reads and a line is fit to share by rank.\n" +
			"\tSamples whose fit has an R2 below -r2 are skipped.\n\n" +
			"Usage:\n" +
			"  paneltools amplicons [options] -d outDir sample1.tsv sample2.tsv ...\n\n" +
			"Options:\n")
	ampliconsFlags.PrintDefaults()
}

func runAmplicons(args []string) {
	var err error
	ampliconsFlags := flag.NewFlagSet("amplicons", flag.ExitOnError)

	var inputs inputFiles
	defaults := outlier.DefaultOptions()
	ampliconsFlags.Var(&inputs, "i", "Input per-amplicon read count table (tsv with a total_reads column). May be declared more than once. Remaining arguments are also read as inputs.")
	outDir := ampliconsFlags.String("d", ".", "Output directory.")
	r2 := ampliconsFlags.Float64("r2", defaults.Threshold, "Minimum R2 of the linear fit for a sample to be reported.")
	under := ampliconsFlags.Float64("under", defaults.UnderRatio, "Amplicons with an observed:predicted ratio below this value are undercovered.")
	over := ampliconsFlags.Float64("over", defaults.OverRatio, "Amplicons with an observed:predicted ratio above this value are overcovered.")
	plot := ampliconsFlags.Bool("plot", true, "Save a scatter plot of amplicon coverage for each sample.")
	width := ampliconsFlags.Float64("width", 10, "Scatter plot width in inches.")
	height := ampliconsFlags.Float64("height", 6, "Scatter plot height in inches.")
	verbose := ampliconsFlags.Int("v", 0, "Verbose output by setting to >0.")

	err = ampliconsFlags.Parse(args)
	exception.PanicOnErr(err)
	ampliconsFlags.Usage = func() { ampliconsUsage(ampliconsFlags) }
	inputs = append(inputs, ampliconsFlags.Args()...)

	if len(inputs) == 0 {
		ampliconsFlags.Usage()
		errExit("\nERROR: must specify at least one input table")
	}
	opts := outlier.BatchOptions{
		Options:      outlier.Options{Threshold: *r2, UnderRatio: *under, OverRatio: *over},
		OutDir:       *outDir,
		Plot:         *plot,
		FigureWidth:  *width,
		FigureHeight: *height,
		Verbose:      *verbose,
	}
	if err = opts.Validate(); err != nil {
		ampliconsFlags.Usage()
		errExit("\nERROR: " + err.Error())
	}

	err = os.MkdirAll(*outDir, 0755)
	exception.PanicOnErr(err)
	var skipped int
	for _, rep := range outlier.Batch(inputs, opts) {
		if rep.Err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		log.Printf("%d of %d samples were skipped\n", skipped, len(inputs))
	}
}
