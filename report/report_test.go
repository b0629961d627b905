package report

import (
	"bytes"
	"errors"
	"github.com/dasnellings/methylTools/call"
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/errmodel"
	"github.com/dasnellings/methylTools/fai"
	"github.com/dasnellings/methylTools/failure"
	"github.com/dasnellings/methylTools/regions"
	"github.com/dasnellings/methylTools/strand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vertgenlab/gonomics/bed"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testCalls() []call.MethylationCall {
	return []call.MethylationCall{
		{Contig: "chr10", Pos: 6, Strand: strand.Watson, Context: seqctx.Class{Context: seqctx.CG},
			Depth: 4, Methylated: 4, Total: 4, Level: 1, PValue: 1e-8, QValue: 2e-8, PassesDepth: true, Called: true, Bases: "CCCC"},
		{Contig: "chr10", Pos: 14, Strand: strand.Watson, Context: seqctx.Class{Context: seqctx.CHG},
			Depth: 1, Methylated: 1, Total: 1, Level: 1, PValue: 0.01, QValue: 1, PassesDepth: false, Bases: "C"},
		{Contig: "chr10", Pos: 36, Strand: strand.Crick, Context: seqctx.Class{Context: seqctx.CHH},
			Depth: 2, Methylated: 0, Total: 3, Level: 0, PValue: 1, QValue: 1, PassesDepth: true, Bases: "AAT"},
		{Contig: "chr10", Pos: 40, Strand: strand.Crick, Context: seqctx.Class{Context: seqctx.CHH},
			Depth: 0, Total: 2, PValue: 1, QValue: 1, Bases: "TT"},
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.0", formatLevel(1))
	assert.Equal(t, "0.0", formatLevel(0))
	assert.Equal(t, "0.75", formatLevel(0.75))
	assert.Equal(t, "1.0", formatP(1))
	assert.Equal(t, "1e-08", formatP(1e-8))
	assert.Equal(t, "0.01", formatP(0.01))
}

func TestWriteMethylation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMethylation(&buf, testCalls(), false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, MethylationHeader, lines[0])
	assert.Equal(t, "chr10\t6\tWATSON\tCG\t4\t4\t4\t1.0\tCCCC\t1e-08\ttrue\tfalse\t2e-08\tfalse", lines[1])
	assert.Equal(t, "chr10\t36\tCRICK\tCHH\t2\t3\t0\t0.0\tAAT\t1.0\tfalse\tfalse\t1.0\tfalse", lines[2])

	buf.Reset()
	require.NoError(t, WriteMethylation(&buf, testCalls(), true))
	assert.Contains(t, buf.String(), "chr10\t14\tWATSON\tCHG\t1\t1\t1\t1.0\tC\t0.01\tfalse\ttrue\t1.0\tfalse")
	assert.NotContains(t, buf.String(), "chr10\t40\t", "zero depth is never reported")
}

func TestWriteMethylcytosines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMethylcytosines(&buf, testCalls()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, MethylcytosinesHeader, lines[0])
	assert.Equal(t, "chr10\t6\tWATSON\tCG\t1.0\t4\t4\tCCCC\t1e-08\t2e-08\tfalse", lines[1])
	assert.Equal(t, "4", strings.Split(lines[1], "\t")[5])
}

func TestToVcf(t *testing.T) {
	calls := testCalls()
	v := ToVcf(calls[0])
	assert.Equal(t, "chr10", v.Chr)
	assert.Equal(t, 6, v.Pos)
	assert.Equal(t, "C", v.Ref)
	assert.Equal(t, []string{"T"}, v.Alt)
	assert.Equal(t, 80.0, v.Qual)
	assert.Equal(t, "CX=CG;ST=WATSON;ML=1.0;PV=1e-08", v.Info)
	assert.Equal(t, []int16{0}, v.Samples[0].Alleles)
	assert.Equal(t, []string{"", "4", "4", "1.0"}, v.Samples[0].FormatData)

	v = ToVcf(calls[2])
	assert.Equal(t, "G", v.Ref)
	assert.Equal(t, []string{"A"}, v.Alt)
	assert.Equal(t, []int16{1}, v.Samples[0].Alleles)
	assert.Contains(t, v.Info, "ST=CRICK")

	assert.Equal(t, float64(maxQual), phred(0))
}

func TestBoundaryFlag(t *testing.T) {
	c := call.MethylationCall{Contig: "chr10", Pos: 100, Strand: strand.Watson,
		Context: seqctx.Class{Context: seqctx.CHH, Boundary: true},
		Depth: 3, Methylated: 3, Total: 3, Level: 1, PValue: 1e-9, QValue: 1e-9, PassesDepth: true, Called: true, Bases: "CCC"}

	var buf bytes.Buffer
	require.NoError(t, WriteMethylation(&buf, []call.MethylationCall{c}, false))
	assert.Contains(t, buf.String(), "\tCHH\t3\t3\t3\t1.0\tCCC\t1e-09\ttrue\tfalse\t1e-09\ttrue\n")

	buf.Reset()
	require.NoError(t, WriteMethylcytosines(&buf, []call.MethylationCall{c}))
	assert.True(t, strings.HasSuffix(buf.String(), "\t1e-09\t1e-09\ttrue\n"), buf.String())

	assert.Equal(t, "CX=CHH;ST=WATSON;ML=1.0;PV=1e-09;BD", ToVcf(c).Info)
	assert.NotContains(t, ToVcf(testCalls()[0]).Info, "BD")
}

func TestWriteVcf(t *testing.T) {
	var buf bytes.Buffer
	idx := fai.New([]string{"chr10"}, []int{100})
	require.NoError(t, WriteVcf(&buf, "s1", "hg", idx, testCalls()))
	out := buf.String()
	assert.Contains(t, out, "##fileformat=VCFv4.2\n")
	assert.Contains(t, out, "##contig=<ID=chr10,length=100>\n")
	assert.Contains(t, out, "##INFO=<ID=BD,Number=0,Type=Flag,")
	assert.Contains(t, out, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\n")
	assert.Contains(t, out, "chr10\t6\t.\tC\tT\t")
	assert.NotContains(t, out, "chr10\t36\t")
}

func TestBatchCommit(t *testing.T) {
	dir := t.TempDir()
	var b Batch
	paths := NewPaths(dir, "s1", "hg")
	w, err := b.Create(paths.Summary())
	require.NoError(t, err)
	_, err = io.WriteString(w, "hello\n")
	require.NoError(t, err)

	_, err = os.Stat(paths.Summary())
	assert.True(t, os.IsNotExist(err), "file is hidden until commit")

	require.NoError(t, b.Commit())
	data, err := os.ReadFile(paths.Summary())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBatchAbort(t *testing.T) {
	dir := t.TempDir()
	var b Batch
	paths := NewPaths(dir, "s1", "hg")
	for _, p := range []string{paths.Methylation(strand.Watson), paths.Methylation(strand.Crick)} {
		_, err := b.Create(p)
		require.NoError(t, err)
	}
	b.Abort()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = b.Create(paths.Vcf())
	assert.True(t, failure.Is(err, failure.OutputWrite))
}

func TestPaths(t *testing.T) {
	p := NewPaths("out", "s1", "hg38")
	assert.Equal(t, filepath.Join("out", "s1.hg38.methylation.WATSON.tsv"), p.Methylation(strand.Watson))
	assert.Equal(t, filepath.Join("out", "s1.hg38.methylation.CRICK.tsv"), p.Methylation(strand.Crick))
	assert.Equal(t, filepath.Join("out", "s1.hg38.methylcytosines.tsv"), p.Methylcytosines())
	assert.Equal(t, filepath.Join("out", "s1.hg38.methylcytosines.vcf"), p.Vcf())
	assert.Equal(t, filepath.Join("out", "s1.hg38.summary.txt"), p.Summary())
}

func TestSummary(t *testing.T) {
	s := Summary{
		Sample:    "s1",
		Reference: "hg",
		Model: errmodel.Model{Mode: "control", Rates: [2]errmodel.Rate{
			strand.Watson: {Rate: 0.01, Methylated: 1, Depth: 100, Estimated: true},
			strand.Crick:  {Rate: 0.02, Methylated: 2, Depth: 100, Estimated: true},
		}},
	}
	calls := testCalls()
	s.Tally(calls[:2], calls[2:])
	assert.Equal(t, 3, s.Covered, "below minimum depth but covered")
	assert.Equal(t, 2, s.Positions)
	assert.Equal(t, 1, s.Calls)
	assert.Equal(t, 3.0, s.MeanDepth)
	assert.Equal(t, 1.0, s.Histogram[histogramBins-1])
	assert.Equal(t, 1, s.Contexts[strand.Watson][seqctx.CG].Called)
	assert.Equal(t, 1, s.Contexts[strand.Crick][seqctx.CHH].Covered)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "status\tSUCCEEDED\n")
	assert.Contains(t, out, "error.rate.WATSON\t0.01\n")
	assert.Contains(t, out, "error.evidence.CRICK\t2/100\n")
	assert.Contains(t, out, "methylcytosines\t1\n")
	assert.Contains(t, out, "positions.covered\t3\n")
	assert.Contains(t, out, "positions.passing_depth\t2\n")
	assert.Contains(t, out, "WATSON\tCG\t0\t1\t1\t1.0000\n")
	assert.NotContains(t, out, "reason")
}

func TestRun(t *testing.T) {
	r := Reduce([]Summary{
		{Sample: "s2", Reference: "hg", Calls: 3},
		{Sample: "s1", Reference: "hg", Err: failure.Newf(failure.InsufficientControlData, "estimating", "no coverage")},
	})
	assert.Equal(t, 1, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.False(t, r.AllFailed())
	assert.Equal(t, "s1", r.Tasks[0].Sample)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Contains(t, buf.String(), "s1\thg\tFAILED\t.\tInsufficientControlData\t")
	assert.Contains(t, buf.String(), "s2\thg\tSUCCEEDED\t3\t.\t.\n")

	assert.True(t, Reduce([]Summary{{Err: errors.New("x")}}).AllFailed())
	assert.False(t, Reduce(nil).AllFailed())
}

func TestWriteRegions(t *testing.T) {
	set := regions.New([]bed.Bed{
		{Chrom: "chr10", ChromStart: 0, ChromEnd: 20, Name: "promoter"},
		{Chrom: "chr10", ChromStart: 50, ChromEnd: 60},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteRegions(&buf, set, testCalls()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "chr10\t0\t20\tpromoter\t1\t1\t1.0000\t0\t0\t0.0000\t0\t0\t0.0000", lines[1])
	assert.Equal(t, "chr10\t50\t60\t.\t0\t0\t0.0000\t0\t0\t0.0000\t0\t0\t0.0000", lines[2])
}

func TestWritePlot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, "s1 hg", testCalls()))
	assert.Contains(t, buf.String(), "<svg")
}
