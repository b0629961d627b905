package main

import (
	"flag"
	"fmt"
	"github.com/dasnellings/methylTools/clonal"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/sam"
	"log"
)

func dedupUsage(dedupFlags *flag.FlagSet) {
	fmt.Print(
		"dedup - remove clonal duplicates (same 5' position, strand, and mate position) from alignments\n\n" +
			"Usage:\n" +
			"  methyltools dedup [options] -i input.bam > output.bam\n\n" +
			"Options:\n")
	dedupFlags.PrintDefaults()
}

func runDedup(args []string) {
	var err error
	dedupFlags := flag.NewFlagSet("dedup", flag.ExitOnError)

	input := dedupFlags.String("i", "", "Input sam or bam file.")
	output := dedupFlags.String("o", "stdout", "Output bam file.")
	policy := dedupFlags.String("policy", clonal.First.String(), "Read kept among duplicates: first (stream in input order) or mapq (highest mapping quality, buffers the whole input).")
	verbose := dedupFlags.Int("verbose", 0, "Level of verbosity in log.")

	err = dedupFlags.Parse(args)
	exception.PanicOnErr(err)
	dedupFlags.Usage = func() { dedupUsage(dedupFlags) }

	if *input == "" {
		dedupFlags.Usage()
		errExit("\nERROR: must input a sam or bam file with -i")
	}
	p, err := clonal.ParsePolicy(*policy)
	if err != nil {
		dedupFlags.Usage()
		errExit("\nERROR: " + err.Error())
	}

	dedup(*input, *output, p, *verbose)
}

func dedup(input, output string, policy clonal.Policy, verbose int) {
	reads, header := sam.GoReadToChan(input)
	out := fileio.EasyCreate(output)
	bw := sam.NewBamWriter(out, header)

	var removed, written int
	for r := range clonal.GoFilter(reads, policy, &removed) {
		sam.WriteToBamFileHandle(bw, r, 0)
		written++
	}

	err := bw.Close()
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
	if verbose > 0 {
		log.Printf("Wrote %d reads, removed %d clonal duplicates", written, removed)
	}
}
