package main

import (
	"flag"
	"fmt"
	"github.com/dasnellings/methylTools/fai"
	"github.com/vertgenlab/gonomics/exception"
)

func indexUsage(indexFlags *flag.FlagSet) {
	fmt.Print(
		"index - write a samtools compatible .fai index so 'call' can read the reference without loading it into memory\n\n" +
			"Usage:\n" +
			"  methyltools index -r reference.fasta\n\n" +
			"Options:\n")
	indexFlags.PrintDefaults()
}

func runIndex(args []string) {
	var err error
	indexFlags := flag.NewFlagSet("index", flag.ExitOnError)

	ref := indexFlags.String("r", "", "Uncompressed reference fasta file.")
	output := indexFlags.String("o", "", "Output index file. Default is reference.fasta.fai.")

	err = indexFlags.Parse(args)
	exception.PanicOnErr(err)
	indexFlags.Usage = func() { indexUsage(indexFlags) }

	if *ref == "" {
		indexFlags.Usage()
		errExit("\nERROR: must input a fasta file with -r")
	}
	if *output == "" {
		*output = *ref + ".fai"
	}

	idx, err := fai.Build(*ref)
	if err != nil {
		errExit(err.Error())
	}
	err = idx.Write(*output)
	exception.PanicOnErr(err)
}
