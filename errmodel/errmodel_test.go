package errmodel

import (
	"github.com/dasnellings/methylTools/failure"
	"github.com/dasnellings/methylTools/pileup"
	"github.com/dasnellings/methylTools/regions"
	"github.com/dasnellings/methylTools/strand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vertgenlab/gonomics/bed"
	"testing"
)

func cell(contig string, pos int, s strand.Strand, meth, unmeth int) pileup.Cell {
	return pileup.Cell{Contig: contig, Pos: pos, Strand: s, Methylated: meth, Unmethylated: unmeth}
}

func TestFixed(t *testing.T) {
	m, err := Build(Fixed{Watson: 0.01, Crick: 0.02}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.01, m.Rate(strand.Watson))
	assert.Equal(t, 0.02, m.Rate(strand.Crick))
	assert.False(t, m.Rates[strand.Watson].Estimated)

	_, err = Build(Fixed{Watson: 1.5}, nil, nil)
	assert.True(t, failure.Is(err, failure.InvalidConfig))
	_, err = Build(Fixed{Crick: -0.1}, nil, nil)
	assert.True(t, failure.Is(err, failure.InvalidConfig))
}

func TestControlLabel(t *testing.T) {
	watson := []pileup.Cell{
		cell("lambda", 5, strand.Watson, 1, 9),
		cell("lambda", 9, strand.Watson, 0, 10),
		cell("chr1", 5, strand.Watson, 20, 0),
	}
	crick := []pileup.Cell{
		cell("lambda", 6, strand.Crick, 2, 2),
	}
	c := Control{Label: "lambda", MinDepth: 1}
	m, err := Build(c, watson, crick)
	require.NoError(t, err)
	assert.Equal(t, Rate{Rate: 0.05, Methylated: 1, Depth: 20, Estimated: true}, m.Rates[strand.Watson])
	assert.Equal(t, 0.5, m.Rate(strand.Crick))
	assert.True(t, c.IsControlContig("lambda"))
	assert.False(t, c.IsControlContig("chr1"))
	assert.Contains(t, m.String(), "WATSON=0.05 (1/20)")
}

func TestControlRegions(t *testing.T) {
	c := Control{Regions: regions.New([]bed.Bed{{Chrom: "chr1", ChromStart: 0, ChromEnd: 100}}), MinDepth: 5}
	watson := []pileup.Cell{
		cell("chr1", 50, strand.Watson, 1, 4),
		cell("chr1", 500, strand.Watson, 10, 0),
	}
	crick := []pileup.Cell{
		cell("chr1", 51, strand.Crick, 0, 5),
	}
	m, err := Build(c, watson, crick)
	require.NoError(t, err)
	assert.Equal(t, 0.2, m.Rate(strand.Watson))
	assert.Equal(t, 0.0, m.Rate(strand.Crick))
	assert.False(t, c.IsControlContig("chr1"))
}

func TestInsufficientControl(t *testing.T) {
	c := Control{Regions: regions.New([]bed.Bed{{Chrom: "chr1", ChromStart: 0, ChromEnd: 100}}), MinDepth: 1}
	watson := []pileup.Cell{cell("chr1", 50, strand.Watson, 1, 4)}
	_, err := Build(c, watson, nil)
	assert.True(t, failure.Is(err, failure.InsufficientControlData))

	_, err = Build(Control{}, watson, nil)
	assert.True(t, failure.Is(err, failure.InvalidConfig))
}
