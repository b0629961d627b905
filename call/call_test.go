package call

import (
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/pileup"
	"github.com/dasnellings/methylTools/strand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func TestPValue(t *testing.T) {
	assert.InDelta(t, 0.5, PValue(1, 1, 0.5), 1e-12)
	assert.InDelta(t, 0.25, PValue(2, 2, 0.5), 1e-12)
	assert.InDelta(t, 1-math.Pow(0.9, 10), PValue(1, 10, 0.1), 1e-12)
	assert.InDelta(t, math.Pow(0.1, 10), PValue(10, 10, 0.1), 1e-15)

	assert.Equal(t, 1.0, PValue(0, 10, 0.1))
	assert.Equal(t, 1.0, PValue(0, 0, 0.1))
	assert.Equal(t, 0.0, PValue(3, 10, 0))
	assert.Equal(t, 1.0, PValue(3, 10, 1))
}

func TestPValueMonotonic(t *testing.T) {
	for _, rate := range []float64{0.001, 0.01, 0.2, 0.5} {
		for depth := 1; depth <= 40; depth++ {
			prev := 2.0
			for meth := 0; meth <= depth; meth++ {
				p := PValue(meth, depth, rate)
				assert.True(t, p >= 0 && p <= 1)
				assert.LessOrEqual(t, p, prev, "rate %g depth %d meth %d", rate, depth, meth)
				prev = p
			}
		}
	}
}

func TestBenjaminiHochberg(t *testing.T) {
	q := BenjaminiHochberg([]float64{0.01, 0.04, 0.03, 0.5})
	require.Len(t, q, 4)
	assert.InDelta(t, 0.04, q[0], 1e-12)
	assert.InDelta(t, 0.16/3, q[1], 1e-12)
	assert.InDelta(t, 0.16/3, q[2], 1e-12)
	assert.InDelta(t, 0.5, q[3], 1e-12)
	assert.Empty(t, BenjaminiHochberg(nil))
}

func TestEvaluateAndFinalize(t *testing.T) {
	params := Params{MinDepth: 2, Significance: 0.01}
	class := seqctx.Class{Context: seqctx.CG}
	watson := []MethylationCall{
		Evaluate(pileup.Cell{Contig: "chr1", Pos: 6, Strand: strand.Watson, Methylated: 5, Bases: "CCCCC"}, class, 0.01, params),
		Evaluate(pileup.Cell{Contig: "chr1", Pos: 9, Strand: strand.Watson, Methylated: 1, Other: 2, Bases: "CAA"}, class, 0.01, params),
		Evaluate(pileup.Cell{Contig: "chr1", Pos: 12, Strand: strand.Watson, Methylated: 0, Unmethylated: 4, Bases: "TTTT"}, class, 0.01, params),
	}
	crick := []MethylationCall{
		Evaluate(pileup.Cell{Contig: "chr1", Pos: 7, Strand: strand.Crick, Methylated: 3, Unmethylated: 1, Bases: "GGAG"}, class, 0.01, params),
	}

	assert.Equal(t, 5, watson[0].Depth)
	assert.Equal(t, 1.0, watson[0].Level)
	assert.True(t, watson[0].PassesDepth)
	assert.False(t, watson[1].PassesDepth)
	assert.Equal(t, 3, watson[1].Total)
	assert.Equal(t, 0.75, crick[0].Level)

	Finalize(params, watson, crick)
	assert.True(t, watson[0].Called)
	assert.False(t, watson[1].Called, "below minimum depth")
	assert.Equal(t, 1.0, watson[1].QValue)
	assert.False(t, watson[2].Called)
	assert.True(t, crick[0].Called)
	assert.GreaterOrEqual(t, crick[0].QValue, crick[0].PValue)

	// with fdr the decision uses the larger q-value
	params.Correction = FDR
	params.Significance = crick[0].PValue * 1.2
	Finalize(params, watson, crick)
	assert.True(t, watson[0].Called)
	assert.False(t, crick[0].Called)
}

func TestParseCorrection(t *testing.T) {
	c, err := ParseCorrection("FDR")
	require.NoError(t, err)
	assert.Equal(t, FDR, c)
	c, err = ParseCorrection("")
	require.NoError(t, err)
	assert.Equal(t, None, c)
	_, err = ParseCorrection("bonferroni")
	assert.Error(t, err)
}

func TestLess(t *testing.T) {
	order := map[string]int{"chr2": 0, "chr1": 1}
	a := MethylationCall{Contig: "chr2", Pos: 100}
	b := MethylationCall{Contig: "chr1", Pos: 1}
	c := MethylationCall{Contig: "chrUn", Pos: 1}
	assert.True(t, Less(order, a, b))
	assert.True(t, Less(order, b, c))
	assert.False(t, Less(order, c, a))
	d := MethylationCall{Contig: "chr1", Pos: 1, Strand: strand.Crick}
	assert.True(t, Less(order, b, d))
}
