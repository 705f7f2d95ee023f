package model

import (
	"bytes"
	"errors"
	"flag"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var iternum = flag.Int("n", 10000, "number of samples drawn from a model")

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

func qualOf(l int, q byte) []byte {
	return bytes.Repeat([]byte{q}, l)
}

func mustBuilder(t *testing.T, cfg Config) *Builder {
	b, err := NewBuilder(cfg, 1)
	require.NoError(t, err)
	return b
}

func TestScenario(t *testing.T) {
	b := mustBuilder(t, DefaultConfig())
	b.Add(100, qualOf(100, 20))
	b.Add(100, qualOf(100, 30))
	b.Add(500, qualOf(500, 10))

	m, err := b.Build()
	require.NoError(t, err)
	require.Len(t, m.Bins, 2)

	assert.Equal(t, 100, m.Bins[0].MinLen)
	assert.Equal(t, 100, m.Bins[0].MaxLen)
	assert.Equal(t, 2, m.Bins[0].Count)
	assert.InDelta(t, 2.0/3, m.Bins[0].Weight, 1e-3)
	assert.Equal(t, 500, m.Bins[1].MinLen)
	assert.Equal(t, 500, m.Bins[1].MaxLen)
	assert.InDelta(t, 1.0/3, m.Bins[1].Weight, 1e-3)

	rnd := rand.New(rand.NewPCG(3, 3))
	counts := make(map[int]int)
	for i := 0; i < *iternum; i++ {
		l, q := m.Sample(rnd)
		require.Len(t, q, l)
		counts[l]++
	}

	require.Len(t, counts, 2)
	n := float64(*iternum)
	assert.InDelta(t, 2.0/3, float64(counts[100])/n, 0.03)
	assert.InDelta(t, 1.0/3, float64(counts[500])/n, 0.03)
}

func TestEmpty(t *testing.T) {
	b := mustBuilder(t, DefaultConfig())
	b.Add(0, qualOf(10, 10))
	b.Add(10, nil)

	_, err := b.Build()
	assert.True(t, errors.Is(err, ErrEmptyModel))
	assert.Equal(t, 2, b.Skipped())
	assert.Equal(t, 0, b.Count())

	_, err = New(nil)
	assert.True(t, errors.Is(err, ErrEmptyModel))
}

func TestBinning(t *testing.T) {
	b := mustBuilder(t, DefaultConfig())
	for _, l := range []int{50, 99, 150, 350, 19999, 20000, 25000} {
		b.Add(l, qualOf(l, 15))
	}

	m, err := b.Build()
	require.NoError(t, err)

	var got [][2]int
	for _, bn := range m.Bins {
		got = append(got, [2]int{bn.MinLen, bn.MaxLen})
	}

	assert.Equal(t, [][2]int{{50, 99}, {150, 150}, {350, 350}, {19999, 19999}, {20000, 25000}}, got)
	assert.Equal(t, 7, m.Count())

	minLen, maxLen := m.LengthRange()
	assert.Equal(t, 50, minLen)
	assert.Equal(t, 25000, maxLen)
}

func TestObservationRules(t *testing.T) {
	b := mustBuilder(t, DefaultConfig())

	// longer profile is truncated
	b.Add(3, []byte{1, 2, 3, 4, 5})

	// shorter profile is repeated
	b.Add(105, []byte{7, 8})

	// values above the Phred limit are clamped
	b.Add(210, []byte{120, 40})

	m, err := b.Build()
	require.NoError(t, err)
	require.Len(t, m.Bins, 3)

	assert.Equal(t, []byte{1, 2, 3}, m.Bins[0].Pool[0])

	q := m.Bins[1].Pool[0]
	require.Len(t, q, 105)
	for i, v := range q {
		assert.Equal(t, []byte{7, 8}[i%2], v)
	}

	q = m.Bins[2].Pool[0]
	require.Len(t, q, 210)
	assert.Equal(t, byte(93), q[0])
	assert.Equal(t, byte(40), q[1])
}

func TestReservoirCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolCapacity = 10
	b := mustBuilder(t, cfg)

	for i := 0; i < 500; i++ {
		b.Add(50, qualOf(50, byte(i%90)))
	}

	m, err := b.Build()
	require.NoError(t, err)
	require.Len(t, m.Bins, 1)
	assert.Len(t, m.Bins[0].Pool, 10)
	assert.Equal(t, 500, m.Bins[0].Count)

	// the reservoir should not only hold the first reads
	late := 0
	for _, q := range m.Bins[0].Pool {
		if q[0] >= 10 {
			late++
		}
	}
	assert.NotZero(t, late)

	// unbounded
	cfg.PoolCapacity = 0
	b = mustBuilder(t, cfg)
	for i := 0; i < 2000; i++ {
		b.Add(50, qualOf(50, 10))
	}
	m, err = b.Build()
	require.NoError(t, err)
	assert.Len(t, m.Bins[0].Pool, 2000)
}

func TestBuilderDeterministic(t *testing.T) {
	build := func() *Model {
		cfg := DefaultConfig()
		cfg.PoolCapacity = 5
		b, err := NewBuilder(cfg, 77)
		require.NoError(t, err)
		for i := 0; i < 300; i++ {
			b.Add(120+i%50, qualOf(120+i%50, byte(i%60)))
		}
		m, err := b.Build()
		require.NoError(t, err)
		return m
	}

	assert.Equal(t, build().Bins, build().Bins)
}

func TestSampleBounds(t *testing.T) {
	rnd := rand.New(rand.NewPCG(11, 12))
	b := mustBuilder(t, DefaultConfig())
	for i := 0; i < 2000; i++ {
		l := 1 + rnd.IntN(30000)
		b.Add(l, qualOf(1+rnd.IntN(50), byte(rnd.IntN(94))))
	}

	m, err := b.Build()
	require.NoError(t, err)
	minLen, maxLen := m.LengthRange()

	for i := 0; i < *iternum; i++ {
		l, q := m.Sample(rnd)
		require.Len(t, q, l)
		require.GreaterOrEqual(t, l, minLen)
		require.LessOrEqual(t, l, maxLen)
		bn := m.Bin(0)
		require.NotNil(t, bn)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{BinWidth: 0, MaxBinnedLength: 100}.Validate())
	assert.Error(t, Config{BinWidth: 100, MaxBinnedLength: 50}.Validate())
	assert.Error(t, Config{BinWidth: 100, MaxBinnedLength: 500, PoolCapacity: -1}.Validate())
}

func TestPersistence(t *testing.T) {
	b := mustBuilder(t, DefaultConfig())
	b.Add(100, qualOf(100, 20))
	b.Add(120, qualOf(120, 21))
	b.Add(5000, qualOf(5000, 9))
	m, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	m2, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Bins, m2.Bins)
	assert.InDelta(t, m.MeanLength(), m2.MeanLength(), 1e-9)

	fname := filepath.Join(t.TempDir(), "model.rfm")
	require.NoError(t, m.SaveFile(fname))
	m3, err := LoadFile(fname)
	require.NoError(t, err)
	assert.Equal(t, m.Bins, m3.Bins)

	_, err = Load(bytes.NewReader([]byte("not a model")))
	assert.True(t, errors.Is(err, ErrModelFormat))
}

func TestLoadEmptyProfile(t *testing.T) {
	bad := &Model{Bins: []LengthBin{
		{MinLen: 100, MaxLen: 100, Count: 2, Pool: [][]byte{qualOf(100, 20), {}}},
	}}

	var buf bytes.Buffer
	require.NoError(t, bad.Save(&buf))

	_, err := Load(&buf)
	assert.True(t, errors.Is(err, ErrModelFormat), "%v", err)
}
