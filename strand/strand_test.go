package strand

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vertgenlab/gonomics/dna"
	"testing"
)

func TestBases(t *testing.T) {
	assert.Equal(t, dna.C, Watson.TargetBase())
	assert.Equal(t, dna.T, Watson.ConvertedBase())
	assert.Equal(t, dna.G, Crick.TargetBase())
	assert.Equal(t, dna.A, Crick.ConvertedBase())
}

func TestParse(t *testing.T) {
	for _, in := range []string{"WATSON", "watson", "+"} {
		s, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, Watson, s)
	}
	s, err := Parse("Crick")
	require.NoError(t, err)
	assert.Equal(t, Crick, s)
	_, err = Parse("forward")
	assert.Error(t, err)
	assert.Equal(t, "CRICK", Crick.String())
}
