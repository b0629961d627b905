package report

import (
	"github.com/dasnellings/methylTools/strand"
	"path/filepath"
)

// RunSummaryName is the file in the output directory describing every task.
const RunSummaryName = "run.summary.txt"

// Paths names the files produced for one (sample, reference) task.
type Paths struct {
	Dir    string
	Prefix string
}

// NewPaths returns the output file names of sample against reference in dir.
func NewPaths(dir, sample, reference string) Paths {
	return Paths{Dir: dir, Prefix: sample + "." + reference}
}

func (p Paths) file(suffix string) string {
	return filepath.Join(p.Dir, p.Prefix+suffix)
}

func (p Paths) Methylation(s strand.Strand) string {
	return p.file(".methylation." + s.String() + ".tsv")
}

func (p Paths) Methylcytosines() string {
	return p.file(".methylcytosines.tsv")
}

func (p Paths) Vcf() string {
	return p.file(".methylcytosines.vcf")
}

func (p Paths) Summary() string {
	return p.file(".summary.txt")
}

func (p Paths) Regions() string {
	return p.file(".regions.tsv")
}

func (p Paths) Plot() string {
	return p.file(".levels.svg")
}
