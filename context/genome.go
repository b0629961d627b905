package context

import (
	"fmt"
	"github.com/dasnellings/methylTools/strand"
	"github.com/vertgenlab/gonomics/dna"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"strings"
)

// Counts holds the number of reference cytosines per strand and context.
type Counts [2][3]int

// Add accumulates other into c.
func (c *Counts) Add(other Counts) {
	for s := range c {
		for ctx := range c[s] {
			c[s][ctx] += other[s][ctx]
		}
	}
}

// Total returns the number of cytosines of a context summed over both strands.
func (c Counts) Total(ctx Context) int {
	return c[strand.Watson][ctx] + c[strand.Crick][ctx]
}

// CountGenome classifies every cytosine of seq on both strands. Positions the
// policy skips are not counted.
func CountGenome(seq []dna.Base, policy BoundaryPolicy) Counts {
	var ans Counts
	var class Class
	var keep bool
	for i := range seq {
		for _, s := range strand.Both {
			if seq[i] != s.TargetBase() {
				continue
			}
			class, keep = Classify(seq, i+1, s, policy)
			if !keep {
				continue
			}
			ans[s][class.Context]++
		}
	}
	return ans
}

// MotifCounts tallies the three base motif of every cytosine of seq on both
// strands. Only motifs made of A, C, G, and T are counted.
func MotifCounts(seq []dna.Base) map[string]int {
	m := initMotifMap()
	var keyFound bool
	var motif string
	for i := range seq {
		for _, s := range strand.Both {
			if seq[i] != s.TargetBase() {
				continue
			}
			motif = Motif(seq, i+1, s)
			if _, keyFound = m[motif]; !keyFound {
				continue
			}
			m[motif]++
		}
	}
	return m
}

// MotifOutput formats motif counts as tab separated lines sorted by motif.
func MotifOutput(m map[string]int) string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	s := new(strings.Builder)
	s.WriteString("#Motif\tContext\tCount\n")
	for _, key := range keys {
		fmt.Fprintf(s, "%s\t%s\t%d\n", key, motifContext(key), m[key])
	}
	return s.String()
}

func motifContext(motif string) Context {
	switch {
	case motif[1] == 'G':
		return CG
	case motif[2] == 'G':
		return CHG
	default:
		return CHH
	}
}

// initialize map with every C followed by two defined bases.
func initMotifMap() map[string]int {
	m := make(map[string]int)
	var pfs []string // pfs == possible flanking sequences
	permute("ACGT", "", 2, &pfs)
	for i := range pfs {
		m["C"+pfs[i]] = 0
	}
	return m
}

// permute generates all possible permutations of characters present in b of length k and stores them in ans.
func permute(b string, s string, k int, ans *[]string) {
	if k == 0 {
		*ans = append(*ans, s)
		return
	}

	for i := 0; i < len(b); i++ {
		permute(b, s+string(b[i]), k-1, ans)
	}
}
