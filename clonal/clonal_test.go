package clonal

import (
	"github.com/dasnellings/methylTools/reads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vertgenlab/gonomics/sam"
	"testing"
)

func read(name string, start, end int, reverse bool, mapq uint8) reads.AlignedRead {
	return reads.AlignedRead{Name: name, Contig: "chr1", Start: start, End: end, Reverse: reverse, MapQ: mapq}
}

func names(r []reads.AlignedRead) []string {
	ans := make([]string, len(r))
	for i := range r {
		ans[i] = r[i].Name
	}
	return ans
}

func TestFilterFirst(t *testing.T) {
	in := []reads.AlignedRead{
		read("a", 10, 50, false, 20),
		read("b", 10, 60, false, 40), // same 5' start as a
		read("c", 10, 50, true, 40),  // reverse, 5' end is 50
		read("d", 20, 50, true, 60),  // reverse, same 5' end as c
		read("e", 11, 50, false, 60),
	}
	kept, removed := Filter(in, First)
	assert.Equal(t, []string{"a", "c", "e"}, names(kept))
	assert.Equal(t, 2, removed)
	assert.Equal(t, "b", in[1].Name, "input is not modified")
}

func TestFilterHighestMapQ(t *testing.T) {
	in := []reads.AlignedRead{
		read("a", 10, 50, false, 20),
		read("b", 10, 60, false, 40),
		read("c", 10, 70, false, 40),
	}
	kept, removed := Filter(in, HighestMapQ)
	assert.Equal(t, []string{"b"}, names(kept))
	assert.Equal(t, 2, removed)
}

func TestFilterPairedMates(t *testing.T) {
	a := read("a", 10, 50, false, 60)
	a.Paired, a.MateContig, a.MateStart, a.TemplateLength = true, "chr1", 200, 240
	b := a
	b.Name = "b"
	b.MateStart = 210
	b.TemplateLength = 250
	c := a
	c.Name = "c"

	kept, removed := Filter([]reads.AlignedRead{a, b, c}, First)
	assert.Equal(t, []string{"a", "b"}, names(kept))
	assert.Equal(t, 1, removed)
}

func TestFilterNeverGrows(t *testing.T) {
	var in []reads.AlignedRead
	for i := 0; i < 50; i++ {
		in = append(in, read("r", 10+i%7, 100, i%2 == 0, uint8(i)))
	}
	for _, p := range []Policy{First, HighestMapQ} {
		kept, removed := Filter(in, p)
		assert.LessOrEqual(t, len(kept), len(in))
		assert.Equal(t, len(in), len(kept)+removed)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("mapq")
	require.NoError(t, err)
	assert.Equal(t, HighestMapQ, p)
	assert.Equal(t, "mapq", p.String())
	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, First, p)
	_, err = ParsePolicy("best")
	assert.Error(t, err)
}

func samRead(line string) sam.Sam {
	s, err := reads.ParseLine(line)
	if err != nil {
		panic(err)
	}
	return s
}

func TestGoFilter(t *testing.T) {
	records := []sam.Sam{
		samRead("a\t0\tchr1\t10\t20\t5M\t*\t0\t0\tACGTA\tIIIII"),
		samRead("b\t0\tchr1\t10\t50\t6M\t*\t0\t0\tACGTAC\tIIIIII"),
		samRead("u\t4\t*\t0\t0\t*\t*\t0\t0\tACGTA\tIIIII"),
		samRead("c\t0\tchr1\t11\t10\t5M\t*\t0\t0\tACGTA\tIIIII"),
	}
	for _, test := range []struct {
		policy Policy
		want   []string
	}{
		{First, []string{"a", "u", "c"}},
		{HighestMapQ, []string{"b", "u", "c"}},
	} {
		in := make(chan sam.Sam, len(records))
		for i := range records {
			in <- records[i]
		}
		close(in)
		var removed int
		var got []string
		for s := range GoFilter(in, test.policy, &removed) {
			got = append(got, s.QName)
		}
		assert.Equal(t, test.want, got, test.policy.String())
		assert.Equal(t, 1, removed)
	}
}
