package report

import (
	"fmt"
	"github.com/dasnellings/methylTools/call"
	seqctx "github.com/dasnellings/methylTools/context"
	"github.com/dasnellings/methylTools/regions"
	"io"
	"strings"
)

type regionKey struct {
	chrom      string
	start, end int
	name       string
}

// WriteRegions writes, for every interval of set, the number of depth passing
// and called cytosines and the mean methylation level per context.
func WriteRegions(w io.Writer, set regions.Set, groups ...[]call.MethylationCall) error {
	tally := make(map[regionKey]*[3]ContextStats, set.Len())
	var key regionKey
	for _, calls := range groups {
		for i := range calls {
			if !calls[i].PassesDepth {
				continue
			}
			for _, b := range set.Overlapping(calls[i].Contig, calls[i].Pos) {
				key = regionKey{b.Chrom, b.ChromStart, b.ChromEnd, b.Name}
				if tally[key] == nil {
					tally[key] = new([3]ContextStats)
				}
				cs := &tally[key][calls[i].Context.Context]
				cs.Covered++
				cs.LevelSum += calls[i].Level
				if calls[i].Called {
					cs.Called++
				}
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("#CHROM\tSTART\tEND\tNAME")
	for _, ctx := range seqctx.All {
		fmt.Fprintf(&sb, "\t%s_COVERED\t%s_METHYLATED\t%s_MEAN_LEVEL", ctx, ctx, ctx)
	}
	sb.WriteString("\n")
	var counts [3]ContextStats
	for _, b := range set.Beds() {
		key = regionKey{b.Chrom, b.ChromStart, b.ChromEnd, b.Name}
		counts = [3]ContextStats{}
		if tally[key] != nil {
			counts = *tally[key]
		}
		name := b.Name
		if name == "" {
			name = "."
		}
		fmt.Fprintf(&sb, "%s\t%d\t%d\t%s", b.Chrom, b.ChromStart, b.ChromEnd, name)
		for _, ctx := range seqctx.All {
			fmt.Fprintf(&sb, "\t%d\t%d\t%.4f", counts[ctx].Covered, counts[ctx].Called, counts[ctx].MeanLevel())
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
