package fai

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testFasta = ">chr1 first\nACGTA\nCGTAC\nGG\n>chr2\nTTTT\n"

func TestBuild(t *testing.T) {
	idx, err := buildFrom(strings.NewReader(testFasta))
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chr2"}, idx.Names())
	assert.Equal(t, "chr1\t12\t12\t5\t6\nchr2\t4\t33\t4\t5\n", idx.String())

	length, found := idx.Length("chr1")
	assert.True(t, found)
	assert.Equal(t, 12, length)
	_, found = idx.Length("chrM")
	assert.False(t, found)
}

func TestBuildInconsistent(t *testing.T) {
	_, err := buildFrom(strings.NewReader(">chr1\nACG\nACGTA\n"))
	assert.Error(t, err)
	_, err = buildFrom(strings.NewReader("ACGT\n>chr1\nA\n"))
	assert.Error(t, err)
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	fa := filepath.Join(dir, "test.fa")
	require.NoError(t, os.WriteFile(fa, []byte(testFasta), 0644))
	idx, err := Build(fa)
	require.NoError(t, err)
	require.NoError(t, idx.Write(fa+".fai"))

	read, err := ReadIndex(fa + ".fai")
	require.NoError(t, err)
	assert.Equal(t, idx.String(), read.String())
	assert.Equal(t, idx.Names(), read.Names())

	_, err = ReadIndex(filepath.Join(dir, "missing.fai"))
	assert.Error(t, err)
}

func TestVcfHeader(t *testing.T) {
	idx := New([]string{"chr1", "chr2"}, []int{12, 4})
	assert.Equal(t, "##contig=<ID=chr1,length=12>\n##contig=<ID=chr2,length=4>\n", idx.VcfHeader())
}
