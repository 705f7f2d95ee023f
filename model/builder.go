package model

import (
	"fmt"
	"math/rand/v2"

	"readfaker/errmdl"
)

// Binning parameters of the model builder
type Config struct {
	BinWidth        int `toml:"bin-width"`
	MaxBinnedLength int `toml:"max-binned-length"`
	PoolCapacity    int `toml:"pool-capacity"` // 0 means unbounded
}

func DefaultConfig() Config {
	return Config{
		BinWidth:        100,
		MaxBinnedLength: 20000,
		PoolCapacity:    1000,
	}
}

func (c Config) Validate() error {
	if c.BinWidth <= 0 {
		return fmt.Errorf("bin width must be positive: %d", c.BinWidth)
	}

	if c.MaxBinnedLength < c.BinWidth {
		return fmt.Errorf("maximum binned length %d smaller than the bin width %d", c.MaxBinnedLength, c.BinWidth)
	}

	if c.PoolCapacity < 0 {
		return fmt.Errorf("negative pool capacity: %d", c.PoolCapacity)
	}

	return nil
}

type bin struct {
	minLen int
	maxLen int
	count  int
	pool   [][]byte
}

// Builder collects (length, quality) observations in a single pass.
// It is not safe for concurrent use.
type Builder struct {
	cfg     Config
	bins    []bin
	rnd     *rand.Rand
	skipped int
}

// Creates a builder. The seed drives the reservoir sampling of the quality
// pools so the same input and seed always give the same model.
func NewBuilder(cfg Config, seed uint64) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nbins := (cfg.MaxBinnedLength + cfg.BinWidth - 1) / cfg.BinWidth
	return &Builder{
		cfg:  cfg,
		bins: make([]bin, nbins+1), // last one catches the long reads
		rnd:  rand.New(rand.NewPCG(seed, 0x6d6f64656c)),
	}, nil
}

func (b *Builder) binIndex(length int) int {
	if length >= b.cfg.MaxBinnedLength {
		return len(b.bins) - 1
	}

	return length / b.cfg.BinWidth
}

// Adds an observed read. qual holds Phred values (not ASCII) and is copied.
// A profile longer than the read is truncated, a shorter one is padded by
// repeating it. Reads with zero length or no qualities are skipped.
func (b *Builder) Add(length int, qual []byte) {
	if length <= 0 || len(qual) == 0 {
		b.skipped++
		return
	}

	q := make([]byte, length)
	for i := range q {
		v := qual[i%len(qual)]
		if v > errmdl.MaxQual {
			v = errmdl.MaxQual
		}
		q[i] = v
	}

	bn := &b.bins[b.binIndex(length)]
	if bn.count == 0 || length < bn.minLen {
		bn.minLen = length
	}
	if length > bn.maxLen {
		bn.maxLen = length
	}
	bn.count++

	// reservoir sampling
	switch {
	case b.cfg.PoolCapacity == 0 || len(bn.pool) < b.cfg.PoolCapacity:
		bn.pool = append(bn.pool, q)

	default:
		if n := b.rnd.IntN(bn.count); n < len(bn.pool) {
			bn.pool[n] = q
		}
	}
}

// Number of observations skipped by Add
func (b *Builder) Skipped() int {
	return b.skipped
}

// Number of observations accepted by Add
func (b *Builder) Count() (n int) {
	for i := range b.bins {
		n += b.bins[i].count
	}

	return
}

// Creates the model from the observations so far. Empty bins are dropped.
func (b *Builder) Build() (*Model, error) {
	var bins []LengthBin

	for i := range b.bins {
		bn := &b.bins[i]
		if bn.count == 0 {
			continue
		}

		pool := make([][]byte, len(bn.pool))
		copy(pool, bn.pool)
		bins = append(bins, LengthBin{
			MinLen: bn.minLen,
			MaxLen: bn.maxLen,
			Count:  bn.count,
			Pool:   pool,
		})
	}

	if len(bins) == 0 {
		return nil, fmt.Errorf("%w: no usable reads (%d skipped)", ErrEmptyModel, b.skipped)
	}

	return New(bins)
}
