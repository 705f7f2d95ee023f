package fastq

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	id   string
	seq  string
	qual []byte
}

func parseAll(t *testing.T, fname string) ([]rec, error) {
	var recs []rec

	err := Parse(fname, func(id string, sequence, quality []byte) error {
		recs = append(recs, rec{id, string(sequence), append([]byte(nil), quality...)})
		return nil
	})

	return recs, err
}

func TestRoundTrip(t *testing.T) {
	var data []byte
	data = Append(data, "r1", []byte("ACGT"), []byte{0, 10, 40, 93})
	data = Append(data, "chr1_10_-_2", []byte("T"), []byte{30})
	data = Append(data, "r3", []byte("NNA"), []byte{2, 2, 2})

	assert.Equal(t, "@r1\nACGT\n+\n!+I~\n", string(data[:16]))

	fname := filepath.Join(t.TempDir(), "reads.fq")
	require.NoError(t, os.WriteFile(fname, data, 0644))

	recs, err := parseAll(t, fname)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, rec{"r1", "ACGT", []byte{0, 10, 40, 93}}, recs[0])
	assert.Equal(t, rec{"chr1_10_-_2", "T", []byte{30}}, recs[1])
	assert.Equal(t, rec{"r3", "NNA", []byte{2, 2, 2}}, recs[2])
}

func TestMalformed(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "bad.fq")
	require.NoError(t, os.WriteFile(fname, []byte("@r1\nACGT\n+\nII\n"), 0644))

	_, err := parseAll(t, fname)
	assert.True(t, errors.Is(err, ErrMalformedRecord), "%v", err)
}

func TestCallbackError(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "reads.fq")
	require.NoError(t, os.WriteFile(fname, Append(nil, "r1", []byte("A"), []byte{1}), 0644))

	stop := errors.New("stop")
	err := Parse(fname, func(string, []byte, []byte) error { return stop })
	assert.Equal(t, stop, err)
}
