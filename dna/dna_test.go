package dna

import (
	"flag"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var iternum = flag.Int("n", 50, "number of iterations")

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

func randomSeq(rnd *rand.Rand, l int) []byte {
	s := make([]byte, l)
	for i := range s {
		s[i] = Nt2Base(rnd.IntN(4))
	}

	return s
}

func TestNtConversion(t *testing.T) {
	for nt := 0; nt < 4; nt++ {
		assert.Equal(t, nt, Base2Nt(Nt2Base(nt)))
	}

	assert.Equal(t, -1, Base2Nt('N'))
	assert.Equal(t, -1, Base2Nt('x'))
	assert.Equal(t, G, Base2Nt('g'))
	assert.Equal(t, byte('N'), Nt2Base(4))
}

func TestRevComp(t *testing.T) {
	assert.Equal(t, []byte("ACGTN"), RevComp(nil, []byte("NACGT")))
	assert.Equal(t, []byte("AAGCTT"), RevComp(nil, []byte("AAGCTT")))

	rnd := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < *iternum; i++ {
		s := randomSeq(rnd, rnd.IntN(200))
		rc := RevComp(nil, s)
		require.Equal(t, s, RevComp(nil, rc), "double reverse complement")
		require.InDelta(t, GCcontent(s), GCcontent(rc), 1e-12)
	}
}

func TestNormalize(t *testing.T) {
	for _, c := range []struct {
		in  byte
		out byte
		ok  bool
	}{
		{'a', 'A', true},
		{'T', 'T', true},
		{'n', 'N', true},
		{'R', 'N', true},
		{'y', 'N', true},
		{'-', 0, false},
		{'X', 0, false},
	} {
		b, ok := Normalize(c.in)
		assert.Equal(t, c.ok, ok, "%c", c.in)
		assert.Equal(t, c.out, b, "%c", c.in)
	}
}

func TestGCcontent(t *testing.T) {
	assert.Equal(t, 0.0, GCcontent(nil))
	assert.Equal(t, 0.5, GCcontent([]byte("ACGT")))
	assert.Equal(t, 1.0, GCcontent([]byte("GGCC")))
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance([]byte("ACGT"), []byte("ACGT")))
	assert.Equal(t, 1, Distance([]byte("ACGT"), []byte("AGGT")))
	assert.Equal(t, 1, Distance([]byte("ACGT"), []byte("ACGGT")))
	assert.Equal(t, 1, Distance([]byte("ACGT"), []byte("AGT")))
	assert.Equal(t, 4, Distance(nil, []byte("ACGT")))
}

func TestDiff(t *testing.T) {
	d, s := Diff([]byte("ACGT"), []byte("ACGT"))
	assert.Equal(t, 0, d)
	assert.Equal(t, "----", s)

	d, s = Diff([]byte("ACGT"), []byte("ATGT"))
	assert.Equal(t, 1, d)
	assert.Equal(t, "-R--", s)

	rnd := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < *iternum; i++ {
		a := randomSeq(rnd, rnd.IntN(60))
		b := randomSeq(rnd, rnd.IntN(60))
		d, _ := Diff(a, b)
		require.Equal(t, Distance(a, b), d)
	}
}
