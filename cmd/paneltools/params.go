package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/dasnellings/panelTools/pipeline"
	"github.com/dasnellings/panelTools/sweep"
	"github.com/vertgenlab/gonomics/exception"
)

func paramsUsage(paramsFlags *flag.FlagSet) {
	fmt.Print(
		"params - compute the subsampling fraction for each point of a reads per amplicon sweep\n\n" +
			"Usage:\n" +
			"  paneltools params [options] -first 100 -last 1000 -points 10 -t targets.bed -i sample.bam\n\n" +
			"Options:\n")
	paramsFlags.PrintDefaults()
}

func runParams(args []string) {
	var err error
	paramsFlags := flag.NewFlagSet("params", flag.ExitOnError)

	first := paramsFlags.Int("first", 100, "First reads per amplicon value of the sweep.")
	last := paramsFlags.Int("last", 1000, "Last reads per amplicon value of the sweep. Lowered to the reads available per amplicon when the sample has too few mapped reads.")
	points := paramsFlags.Int("points", 10, "Number of sweep points.")
	amplicons := paramsFlags.Int("amplicons", 0, "Number of amplicons in the panel. Counted from -t when 0.")
	targets := paramsFlags.String("t", "", "Bed file of panel target regions.")
	bam := paramsFlags.String("i", "", "Input alignment file. Mapped reads are counted from it when -mapped is 0.")
	mapped := paramsFlags.Int("mapped", 0, "Number of mapped reads in the sample.")
	correction := paramsFlags.Float64("correction", 0, "Percent added to each reads per sample value (e.g. 10 requests 10% more reads).")
	output := paramsFlags.String("o", sweep.ParamsFile, "Output JSON file of reads per amplicon to subsampling fraction.")
	verbose := paramsFlags.Int("v", 0, "Verbose output by setting to >0.")

	err = paramsFlags.Parse(args)
	exception.PanicOnErr(err)
	paramsFlags.Usage = func() { paramsUsage(paramsFlags) }

	if *amplicons == 0 && *targets == "" {
		paramsFlags.Usage()
		errExit("\nERROR: must specify the number of amplicons (-amplicons) or a targets bed file (-t)")
	}
	if *mapped == 0 && *bam == "" {
		paramsFlags.Usage()
		errExit("\nERROR: must specify the number of mapped reads (-mapped) or an alignment file (-i)")
	}

	if *amplicons == 0 {
		*amplicons = pipeline.CountAmplicons(*targets)
	}
	if *mapped == 0 {
		if *mapped, err = sweep.CountMappedReads(*bam); err != nil {
			errExit("ERROR: " + err.Error())
		}
	}
	if *verbose > 0 {
		log.Printf("%d amplicons, %d mapped reads\n", *amplicons, *mapped)
	}

	r := sweep.Range{First: *first, Last: *last, Points: *points, AmpliconCount: *amplicons, MappedReads: *mapped, Correction: *correction}
	pts, err := sweep.Plan(&r)
	var cfgErr *sweep.ConfigurationError
	if errors.As(err, &cfgErr) {
		errExit("ERROR: " + err.Error())
	}
	exception.PanicOnErr(err)

	if *verbose > 0 {
		for _, p := range pts {
			log.Printf("%d reads per amplicon\t%d reads per sample\tfraction %g\n", p.ReadsPerAmplicon, p.ReadsPerSample, p.Fraction)
		}
	}
	sweep.WriteParamsFile(*output, pts)
}
