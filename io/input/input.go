// The input package reads the observed reads a model is built from. The
// compression and the record format are detected from the file content.
package input

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/xopen"

	"readfaker/io/bam"
	"readfaker/io/fastq"
)

var ErrMalformedInputRecord = errors.New("malformed input record")

type Format int

const (
	Unknown Format = iota
	FASTQ
	FASTA
	BAM
)

func (f Format) String() string {
	switch f {
	case FASTQ:
		return "FASTQ"
	case FASTA:
		return "FASTA"
	case BAM:
		return "BAM"
	}

	return "unknown"
}

// Detects the record format of a plain or compressed file
func Detect(fname string) (Format, error) {
	r, err := xopen.Ropen(fname)
	if errors.Is(err, xopen.ErrNoContent) {
		return Unknown, fmt.Errorf("%w: %s is empty", ErrMalformedInputRecord, fname)
	} else if err != nil {
		return Unknown, err
	}
	defer r.Close()

	magic, err := r.Peek(4)
	if err != nil && err != io.EOF {
		return Unknown, err
	}

	switch {
	case len(magic) == 4 && string(magic) == "BAM\x01":
		return BAM, nil
	case len(magic) > 0 && magic[0] == '@':
		return FASTQ, nil
	case len(magic) > 0 && magic[0] == '>':
		return FASTA, nil
	}

	return Unknown, nil
}

// Calls process with the length and the Phred qualities of every read in
// the file. The quality slice is only valid until process returns.
func Parse(fname string, process func(length int, qual []byte) error) error {
	format, err := Detect(fname)
	if err != nil {
		return err
	}

	cb := func(_ string, sequence, quality []byte) error {
		return process(len(sequence), quality)
	}

	switch format {
	case FASTQ:
		err = fastq.Parse(fname, cb)
		if errors.Is(err, fastq.ErrMalformedRecord) {
			err = fmt.Errorf("%w: %v", ErrMalformedInputRecord, err)
		}

	case BAM:
		err = bam.Parse(fname, cb)
		if errors.Is(err, bam.ErrMalformedRecord) {
			err = fmt.Errorf("%w: %v", ErrMalformedInputRecord, err)
		}

	case FASTA:
		err = fmt.Errorf("%w: %s is a FASTA file, reads without qualities can't be modeled", ErrMalformedInputRecord, fname)

	default:
		err = fmt.Errorf("%w: %s is neither FASTQ nor BAM", ErrMalformedInputRecord, fname)
	}

	return err
}
