// The config package holds the settings of a simulation run. Settings are
// read from a TOML file and can be overridden on the command line.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/klauspost/compress/flate"
	"github.com/pelletier/go-toml/v2"

	"readfaker/errmdl"
	"readfaker/model"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Reference string `toml:"reference" comment:"Input and output files"`
	Input     string `toml:"input"`
	Output    string `toml:"output"`
	ModelFile string `toml:"model" comment:"Saved model used instead of the input reads"`
	SaveModel string `toml:"save-model"`
	Summary   string `toml:"summary"`

	NumReads int64   `toml:"num-reads" comment:"Simulation"`
	Seed     *uint64 `toml:"seed,omitempty"`

	Threads            int `toml:"threads" comment:"Performance"`
	CompressionThreads int `toml:"compression-threads"`
	CompressionLevel   int `toml:"compression-level"`
	BatchSize          int `toml:"batch-size"`
	MaxAttempts        int `toml:"max-attempts"`

	Errors errmdl.Profile `toml:"errors"`
	Model  model.Config   `toml:"model-bins"`
}

func Default() *Config {
	return &Config{
		NumReads:           10000,
		Threads:            runtime.NumCPU(),
		CompressionThreads: runtime.NumCPU(),
		CompressionLevel:   flate.DefaultCompression,
		BatchSize:          512,
		MaxAttempts:        100,
		Errors:             errmdl.DefaultProfile(),
		Model:              model.DefaultConfig(),
	}
}

// Reads a configuration file. Settings missing from the file keep their
// default values, unknown settings are an error.
func Load(fname string) (*Config, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, fname, err)
	}

	return cfg, nil
}

// Writes the configuration as TOML
func (c *Config) Write(w io.Writer) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// Checks the configuration and normalizes the error profile rates.
func (c *Config) Validate() error {
	switch {
	case c.Reference == "":
		return fmt.Errorf("%w: no reference file", ErrInvalidConfig)
	case c.Input == "" && c.ModelFile == "":
		return fmt.Errorf("%w: neither input reads nor a saved model", ErrInvalidConfig)
	case c.Output == "":
		return fmt.Errorf("%w: no output file", ErrInvalidConfig)
	case c.NumReads < 0:
		return fmt.Errorf("%w: negative number of reads: %d", ErrInvalidConfig, c.NumReads)
	case c.Threads < 1 || c.CompressionThreads < 1:
		return fmt.Errorf("%w: thread counts must be positive", ErrInvalidConfig)
	case c.CompressionLevel < flate.HuffmanOnly || c.CompressionLevel > flate.BestCompression:
		return fmt.Errorf("%w: compression level %d", ErrInvalidConfig, c.CompressionLevel)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be positive: %d", ErrInvalidConfig, c.BatchSize)
	case c.MaxAttempts < 1:
		return fmt.Errorf("%w: at least one attempt per read is needed", ErrInvalidConfig)
	}

	p, err := c.Errors.Normalize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Errors = p

	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}
