// The fasta package reads reference sequences.
package fasta

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"

	"readfaker/dna"
)

var ErrMalformedReference = errors.New("malformed reference")

func init() {
	// validation is done by Parse so the offending position can be reported
	seq.ValidateSeq = false
}

type Record struct {
	Name string
	Seq  []byte
}

// Reads all sequences from a (possibly compressed) FASTA file.
// Sequences are upper-cased and IUPAC ambiguity codes are replaced by N.
func Read(fname string) ([]Record, error) {
	var recs []Record

	err := Parse(fname, func(name string, sequence []byte) error {
		recs = append(recs, Record{Name: name, Seq: sequence})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no sequences in %s", ErrMalformedReference, fname)
	}

	return recs, nil
}

// Calls process for every record in the file. The sequence passed to
// process is normalized and owned by the callee.
func Parse(fname string, process func(name string, sequence []byte) error) error {
	rd, err := fastx.NewReader(seq.DNAredundant, fname, fastx.DefaultIDRegexp)
	if errors.Is(err, xopen.ErrNoContent) {
		return nil
	} else if err != nil {
		return fmt.Errorf("%s: %w", fname, err)
	}
	defer rd.Close()

	for n := 0; ; n++ {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: %s: record %d: %v", ErrMalformedReference, fname, n, err)
		}

		if rd.IsFastq {
			return fmt.Errorf("%w: %s is not a FASTA file", ErrMalformedReference, fname)
		}

		name := string(rec.ID)
		s := make([]byte, len(rec.Seq.Seq))
		for i, b := range rec.Seq.Seq {
			nb, ok := dna.Normalize(b)
			if !ok {
				return fmt.Errorf("%w: %s: invalid character %q at %s:%d", ErrMalformedReference, fname, b, name, i+1)
			}
			s[i] = nb
		}

		if err := process(name, s); err != nil {
			return err
		}
	}

	return nil
}
