package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readfaker/errmdl"
)

func valid() *Config {
	c := Default()
	c.Reference = "ref.fa"
	c.Input = "reads.fq"
	c.Output = "out.fq"
	return c
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, int64(10000), c.NumReads)
	assert.Nil(t, c.Seed)
	assert.Equal(t, 512, c.BatchSize)
	assert.Equal(t, errmdl.DefaultProfile(), c.Errors)
	assert.Equal(t, 100, c.Model.BinWidth)
}

func TestValidate(t *testing.T) {
	c := valid()
	c.Errors = errmdl.Profile{Sub: 2, Ins: 1, Del: 1, ExtIns: 0.2}
	require.NoError(t, c.Validate())
	assert.InDelta(t, 0.5, c.Errors.Sub, 1e-12)
	assert.InDelta(t, 0.25, c.Errors.Del, 1e-12)

	for name, mod := range map[string]func(c *Config){
		"no reference": func(c *Config) { c.Reference = "" },
		"no input":     func(c *Config) { c.Input = "" },
		"no output":    func(c *Config) { c.Output = "" },
		"reads":        func(c *Config) { c.NumReads = -1 },
		"threads":      func(c *Config) { c.Threads = 0 },
		"level":        func(c *Config) { c.CompressionLevel = 12 },
		"batch":        func(c *Config) { c.BatchSize = 0 },
		"attempts":     func(c *Config) { c.MaxAttempts = 0 },
		"rates":        func(c *Config) { c.Errors = errmdl.Profile{} },
		"extension":    func(c *Config) { c.Errors.ExtDel = 1 },
		"bins":         func(c *Config) { c.Model.BinWidth = 0 },
	} {
		c := valid()
		mod(c)
		err := c.Validate()
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%s: %v", name, err)
	}

	// a saved model replaces the input reads
	c = valid()
	c.Input = ""
	c.ModelFile = "model.rfm"
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(fname, []byte(`
reference = "genome.fa"
input = "reads.fastq.gz"
output = "sim.bam"
num-reads = 250
seed = 42

[errors]
sub = 1.0
ins = 0.0
del = 0.0

[model-bins]
bin-width = 50
`), 0644))

	c, err := Load(fname)
	require.NoError(t, err)
	assert.Equal(t, "genome.fa", c.Reference)
	assert.Equal(t, int64(250), c.NumReads)
	require.NotNil(t, c.Seed)
	assert.Equal(t, uint64(42), *c.Seed)
	assert.Equal(t, 1.0, c.Errors.Sub)
	assert.Equal(t, 0.3, c.Errors.ExtIns, "defaults are kept")
	assert.Equal(t, 50, c.Model.BinWidth)
	assert.Equal(t, 20000, c.Model.MaxBinnedLength)
	assert.Equal(t, 512, c.BatchSize)
	require.NoError(t, c.Validate())

	require.NoError(t, os.WriteFile(fname, []byte("num-raeds = 5\n"), 0644))
	_, err = Load(fname)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "%v", err)
}

func TestWriteLoad(t *testing.T) {
	c := valid()
	seed := uint64(7)
	c.Seed = &seed

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	fname := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(fname, buf.Bytes(), 0644))
	c2, err := Load(fname)
	require.NoError(t, err)
	assert.Equal(t, c, c2)
}
