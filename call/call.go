// Package call decides, per cytosine, whether the number of unconverted reads
// is more than the bisulfite error rate alone would explain.
package call

import (
	"fmt"
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/pileup"
	"github.com/dasnellings/methylTools/strand"
	"gonum.org/v1/gonum/stat/distuv"
	"sort"
	"strings"
)

// Correction selects the value compared against the significance threshold.
type Correction byte

const (
	None Correction = iota // raw binomial p-value
	FDR                    // Benjamini-Hochberg q-value
)

func (c Correction) String() string {
	if c == FDR {
		return "fdr"
	}
	return "none"
}

// ParseCorrection accepts "none" (or empty) and "fdr".
func ParseCorrection(s string) (Correction, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "fdr", "bh":
		return FDR, nil
	}
	return None, fmt.Errorf("unrecognized multiple testing correction: %q", s)
}

// Params are the thresholds applied to every call.
type Params struct {
	MinDepth     int
	Significance float64
	Correction   Correction
}

// MethylationCall is the final record for one cytosine.
type MethylationCall struct {
	Contig      string
	Pos         int
	Strand      strand.Strand
	Context     seqctx.Class
	Depth       int
	Methylated  int
	Total       int
	Level       float64
	PValue      float64
	QValue      float64
	PassesDepth bool
	Called      bool
	Bases       string
}

// PValue returns P(X >= methylated) for X ~ Binomial(depth, rate): the
// probability of seeing at least this many unconverted reads if every one of
// them were a conversion error.
func PValue(methylated, depth int, rate float64) float64 {
	switch {
	case depth <= 0 || methylated <= 0:
		return 1
	case methylated > depth:
		return 0
	case rate <= 0:
		return 0
	case rate >= 1:
		return 1
	}
	b := distuv.Binomial{N: float64(depth), P: rate}
	p := b.Survival(float64(methylated - 1))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Evaluate runs the depth check and the significance test on a cell. The
// returned call is provisional until Finalize sets QValue and Called.
func Evaluate(c pileup.Cell, class seqctx.Class, rate float64, p Params) MethylationCall {
	ans := MethylationCall{
		Contig:      c.Contig,
		Pos:         c.Pos,
		Strand:      c.Strand,
		Context:     class,
		Depth:       c.Depth(),
		Methylated:  c.Methylated,
		Total:       c.Total(),
		Level:       c.Level(),
		PValue:      PValue(c.Methylated, c.Depth(), rate),
		QValue:      1,
		PassesDepth: c.Depth() > 0 && c.Depth() >= p.MinDepth,
		Bases:       c.Bases,
	}
	return ans
}

// Finalize computes Benjamini-Hochberg q-values over every depth passing call
// of all groups and then decides Called for each. Calls failing the depth
// check keep a q-value of 1 and are never called.
func Finalize(p Params, groups ...[]MethylationCall) {
	type ref struct{ g, i int }
	var tested []ref
	for g := range groups {
		for i := range groups[g] {
			if groups[g][i].PassesDepth {
				tested = append(tested, ref{g, i})
			} else {
				groups[g][i].QValue = 1
			}
		}
	}

	pvals := make([]float64, len(tested))
	for k, r := range tested {
		pvals[k] = groups[r.g][r.i].PValue
	}
	qvals := BenjaminiHochberg(pvals)

	var decision float64
	for k, r := range tested {
		c := &groups[r.g][r.i]
		c.QValue = qvals[k]
		decision = c.PValue
		if p.Correction == FDR {
			decision = c.QValue
		}
		c.Called = decision < p.Significance
	}
}

// BenjaminiHochberg returns the adjusted q-value of each p-value in pvals.
// Ties keep their input order so the result is deterministic.
func BenjaminiHochberg(pvals []float64) []float64 {
	m := len(pvals)
	ans := make([]float64, m)
	if m == 0 {
		return ans
	}
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return pvals[order[i]] < pvals[order[j]]
	})

	minSoFar := 1.0
	var q float64
	for rank := m; rank >= 1; rank-- {
		idx := order[rank-1]
		q = pvals[idx] * float64(m) / float64(rank)
		if q < minSoFar {
			minSoFar = q
		}
		ans[idx] = minSoFar
	}
	return ans
}

// Less orders calls by contig rank (as given by order) and position.
func Less(order map[string]int, a, b MethylationCall) bool {
	oa, oka := order[a.Contig]
	ob, okb := order[b.Contig]
	switch {
	case oka != okb:
		return oka
	case oa != ob:
		return oa < ob
	case a.Contig != b.Contig:
		return a.Contig < b.Contig
	case a.Pos != b.Pos:
		return a.Pos < b.Pos
	default:
		return a.Strand < b.Strand
	}
}
