package bam

import (
	"errors"
	"fmt"
	"io"
	"os"

	hbam "github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"readfaker/dna"
)

var ErrMalformedRecord = errors.New("malformed BAM record")

// Calls process for the primary record of every read in a BAM file.
// Sequence and quality are returned in sequencing orientation, so records
// mapped to the reverse strand are reversed back. Records without stored
// qualities are passed with an empty quality slice.
func Parse(fname string, process func(name string, sequence, quality []byte) error) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	br, err := hbam.NewReader(f, 1)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedRecord, fname, err)
	}
	defer br.Close()

	for n := 0; ; n++ {
		rec, err := br.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: %s: record %d: %v", ErrMalformedRecord, fname, n, err)
		}

		if rec.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			continue
		}

		seq := rec.Seq.Expand()
		qual := rec.Qual
		if len(qual) > 0 && qual[0] == 0xff {
			qual = nil
		} else {
			qual = append([]byte(nil), qual...)
		}

		if rec.Flags&sam.Reverse != 0 {
			seq = dna.RevComp(nil, seq)
			dna.Reverse(qual)
		}

		if err := process(rec.Name, seq, qual); err != nil {
			return err
		}
	}

	return nil
}
