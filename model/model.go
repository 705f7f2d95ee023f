// The model package holds the empirical length/quality model of a read set.
// Observed reads are grouped into length bins, each bin keeps a bounded pool
// of quality profiles. A read template is drawn by picking a bin with
// probability proportional to the number of reads observed in it and then
// one of the bin's quality profiles.
package model

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

var ErrEmptyModel = errors.New("empty length/quality model")

// LengthBin is a range of read lengths and the quality profiles of reads
// that fell into it. MinLen and MaxLen are the shortest and longest observed
// lengths, Count is the number of observations (not the size of Pool).
type LengthBin struct {
	MinLen int
	MaxLen int
	Weight float64
	Count  int
	Pool   [][]byte
}

// Model is immutable once created and can be shared by any number of
// goroutines.
type Model struct {
	Bins []LengthBin

	cdf []float64
}

// Creates a model from non-empty bins. The bin weights are recomputed from
// the observation counts.
func New(bins []LengthBin) (*Model, error) {
	var total int

	for i := range bins {
		if bins[i].Count <= 0 || len(bins[i].Pool) == 0 {
			return nil, fmt.Errorf("%w: bin %d-%d has no observations", ErrEmptyModel, bins[i].MinLen, bins[i].MaxLen)
		}
		total += bins[i].Count
	}

	if total == 0 {
		return nil, ErrEmptyModel
	}

	m := &Model{Bins: bins, cdf: make([]float64, len(bins))}
	sum := 0
	for i := range m.Bins {
		b := &m.Bins[i]
		b.Weight = float64(b.Count) / float64(total)
		sum += b.Count
		m.cdf[i] = float64(sum) / float64(total)
	}
	m.cdf[len(m.cdf)-1] = 1

	return m, nil
}

// Draws a read template: the target length and its quality profile (Phred
// values). The profile is shared with the model and must not be modified.
// The length is the length of the profile.
func (m *Model) Sample(rnd *rand.Rand) (length int, qual []byte) {
	b := m.Bin(rnd.Float64())
	qual = b.Pool[rnd.IntN(len(b.Pool))]
	return len(qual), qual
}

// Returns the bin that covers the cumulative probability u (0 <= u < 1).
func (m *Model) Bin(u float64) *LengthBin {
	i := sort.Search(len(m.cdf), func(i int) bool { return m.cdf[i] > u })
	if i >= len(m.Bins) {
		i = len(m.Bins) - 1
	}

	return &m.Bins[i]
}

// Number of observations the model was built from
func (m *Model) Count() (n int) {
	for i := range m.Bins {
		n += m.Bins[i].Count
	}

	return
}

// Number of stored quality profiles
func (m *Model) PoolSize() (n int) {
	for i := range m.Bins {
		n += len(m.Bins[i].Pool)
	}

	return
}

// Expected length of a sampled read template
func (m *Model) MeanLength() float64 {
	var mean float64

	for i := range m.Bins {
		b := &m.Bins[i]
		var s int
		for _, q := range b.Pool {
			s += len(q)
		}
		mean += b.Weight * float64(s) / float64(len(b.Pool))
	}

	return mean
}

// Shortest and longest length a sampled template can have
func (m *Model) LengthRange() (minLen, maxLen int) {
	minLen = -1
	for i := range m.Bins {
		for _, q := range m.Bins[i].Pool {
			if minLen < 0 || len(q) < minLen {
				minLen = len(q)
			}
			if len(q) > maxLen {
				maxLen = len(q)
			}
		}
	}

	return
}
