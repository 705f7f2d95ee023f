package fasta

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readfaker/io/fastq"
)

func writeFile(t *testing.T, name, content string) string {
	fname := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fname, []byte(content), 0644))
	return fname
}

func TestRead(t *testing.T) {
	fname := writeFile(t, "ref.fa", ">chr1 first contig\nACGTacgt\nNNry\n>chr2\nGGGG\n")

	recs, err := Read(fname)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "chr1", recs[0].Name)
	assert.Equal(t, []byte("ACGTACGTNNNN"), recs[0].Seq)
	assert.Equal(t, "chr2", recs[1].Name)
	assert.Equal(t, []byte("GGGG"), recs[1].Seq)
}

func TestMalformed(t *testing.T) {
	fname := writeFile(t, "bad.fa", ">chr1\nACGT-ACGT\n")
	_, err := Read(fname)
	assert.True(t, errors.Is(err, ErrMalformedReference), "%v", err)

	fname = writeFile(t, "empty.fa", "")
	_, err = Read(fname)
	assert.Error(t, err)

	_, err = Read(filepath.Join(t.TempDir(), "missing.fa"))
	assert.Error(t, err)
}

// FASTQ and FASTA files read one after the other share the pooled readers
func TestReadAfterFastq(t *testing.T) {
	fa := writeFile(t, "ref.fa", ">chr1\nACGTACGT\n")
	fq := writeFile(t, "reads.fq", "@r1\nACGT\n+\nIIII\n@r2\nGG\n+\n#I\n")

	for i := 0; i < 3; i++ {
		n := 0
		err := fastq.Parse(fq, func(id string, sequence, quality []byte) error {
			n++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 2, n)

		recs, err := Read(fa)
		require.NoError(t, err, "round %d", i)
		require.Len(t, recs, 1)
		assert.Equal(t, []byte("ACGTACGT"), recs[0].Seq)
	}

	_, err := Read(fq)
	assert.True(t, errors.Is(err, ErrMalformedReference), "%v", err)

	err = fastq.Parse(fa, func(id string, sequence, quality []byte) error { return nil })
	assert.True(t, errors.Is(err, fastq.ErrMalformedRecord), "%v", err)
}
