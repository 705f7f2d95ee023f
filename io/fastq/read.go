package fastq

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

var ErrMalformedRecord = errors.New("malformed FASTQ record")

func init() {
	seq.ValidateSeq = false
}

// Calls process for every record of a (possibly compressed) FASTQ file.
// The quality passed to process holds Phred values (not ASCII).
// The slices are only valid until process returns.
func Parse(fname string, process func(id string, sequence, quality []byte) error) error {
	rd, err := fastx.NewReader(seq.DNAredundant, fname, fastx.DefaultIDRegexp)
	if err != nil {
		return fmt.Errorf("%s: %w", fname, err)
	}
	defer rd.Close()

	var qa []byte
	for n := 0; ; n++ {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: %s: record %d: %v", ErrMalformedRecord, fname, n, err)
		}

		id := string(rec.ID)
		if !rd.IsFastq {
			return fmt.Errorf("%w: %s is not a FASTQ file", ErrMalformedRecord, fname)
		}

		if len(rec.Seq.Qual) != len(rec.Seq.Seq) {
			return fmt.Errorf("%w: %s: lengths of sequence and quality lines differ for %s: %d:%d",
				ErrMalformedRecord, fname, id, len(rec.Seq.Seq), len(rec.Seq.Qual))
		}

		qa = qa[:0]
		for _, c := range rec.Seq.Qual {
			if c < '!' || c > '~' {
				return fmt.Errorf("%w: %s: invalid quality character %q in %s", ErrMalformedRecord, fname, c, id)
			}
			qa = append(qa, c-'!')
		}

		if err := process(id, rec.Seq.Seq, qa); err != nil {
			return err
		}
	}

	return nil
}
