package sim

import (
	"errors"
	"fmt"
	"strings"

	"readfaker/io/bam"
	"readfaker/io/fastq"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Format serializes simulated reads
type Format interface {
	Name() string

	// BGZF compressed output
	Compressed() bool

	// Bytes written before the first record
	Header() []byte

	Append(dst []byte, r *SimulatedRead) ([]byte, error)
}

// Information stored in the header of formats that have one
type HeaderInfo struct {
	Program     string
	Version     string
	CommandLine string
	Comments    []string
}

type fastqFormat struct {
	compressed bool
}

func (f fastqFormat) Name() string {
	if f.compressed {
		return "FASTQ (BGZF)"
	}

	return "FASTQ"
}

func (f fastqFormat) Compressed() bool {
	return f.compressed
}

func (f fastqFormat) Header() []byte {
	return nil
}

func (f fastqFormat) Append(dst []byte, r *SimulatedRead) ([]byte, error) {
	return fastq.Append(dst, r.ID, r.Seq, r.Qual), nil
}

type bamFormat struct {
	hdr HeaderInfo
}

func (f bamFormat) Name() string {
	return "BAM"
}

func (f bamFormat) Compressed() bool {
	return true
}

func (f bamFormat) Header() []byte {
	prog := f.hdr.Program
	if prog == "" {
		prog = "readfaker"
	}

	return bam.AppendHeader(nil, bam.HeaderText(prog, f.hdr.Version, f.hdr.CommandLine, f.hdr.Comments...))
}

func (f bamFormat) Append(dst []byte, r *SimulatedRead) ([]byte, error) {
	return bam.AppendRecord(dst, r.ID, r.Seq, r.Qual)
}

// Picks the output format from the file name: .fastq and .fq are written
// as plain text, with a .gz or .bgz suffix as BGZF, .bam as BAM.
func FormatFor(fname string, hdr HeaderInfo) (Format, error) {
	name := strings.ToLower(fname)

	compressed := false
	for _, ext := range []string{".gz", ".bgz"} {
		if strings.HasSuffix(name, ext) {
			compressed = true
			name = strings.TrimSuffix(name, ext)
			break
		}
	}

	switch {
	case strings.HasSuffix(name, ".fastq"), strings.HasSuffix(name, ".fq"):
		return fastqFormat{compressed: compressed}, nil

	case strings.HasSuffix(name, ".bam") && !compressed:
		return bamFormat{hdr: hdr}, nil
	}

	return nil, fmt.Errorf("%w: %s (use .fastq, .fq, .fastq.gz, .fq.gz, .fastq.bgz, .fq.bgz or .bam)", ErrUnknownFormat, fname)
}
