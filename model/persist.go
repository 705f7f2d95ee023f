package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
)

const fileVersion = 1

var ErrModelFormat = errors.New("invalid model file")

type modelFile struct {
	Version int
	Bins    []LengthBin
}

// Writes the model as a snappy compressed gob stream
func (m *Model) Save(w io.Writer) error {
	wtr := snappy.NewBufferedWriter(w)
	if err := gob.NewEncoder(wtr).Encode(&modelFile{Version: fileVersion, Bins: m.Bins}); err != nil {
		return err
	}

	return wtr.Close()
}

func (m *Model) SaveFile(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}

	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Reads a model written by Save
func Load(r io.Reader) (*Model, error) {
	var mf modelFile

	if err := gob.NewDecoder(snappy.NewReader(r)).Decode(&mf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFormat, err)
	}

	if mf.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrModelFormat, mf.Version)
	}

	for i := range mf.Bins {
		b := &mf.Bins[i]
		for j, q := range b.Pool {
			if len(q) == 0 {
				return nil, fmt.Errorf("%w: empty quality profile %d in bin %d-%d", ErrModelFormat, j, b.MinLen, b.MaxLen)
			}
		}
	}

	return New(mf.Bins)
}

func LoadFile(fname string) (*Model, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}

	return m, nil
}
