// The bam package reads qualities from BAM files and writes unaligned BAM
// records. The byte stream produced here still has to be BGZF compressed.
package bam

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	unmappedBin  = 4680 // reg2bin(-1, 0)
	flagUnmapped = 0x4
	minus1       = 0xffffffff
	maxNameLen   = 254
)

var ErrNameTooLong = errors.New("BAM read name too long")

var bamMagic = []byte("BAM\x01")

// 4-bit base codes of "=ACMGRSVTWYHKDBN"
var nt16 [256]byte

func init() {
	for i := range nt16 {
		nt16[i] = 15
	}

	for i, c := range []byte("=ACMGRSVTWYHKDBN") {
		nt16[c] = byte(i)
		nt16[c|0x20] = byte(i)
	}
}

func enlarge(out []byte, by int) (int, []byte) {
	index := len(out)
	length := index + by
	for cap(out) < length {
		out = append(out[:cap(out)], 0)
	}
	out = out[:length]
	return index, out
}

// Builds the SAM text of an unsorted header without reference sequences.
// Each comment becomes a @CO line.
func HeaderText(prog, version, cmdline string, comments ...string) string {
	var sb strings.Builder

	sb.WriteString("@HD\tVN:1.6\tSO:unsorted\n")
	fmt.Fprintf(&sb, "@PG\tID:%s\tPN:%s", prog, prog)
	if version != "" {
		fmt.Fprintf(&sb, "\tVN:%s", version)
	}
	if cmdline != "" {
		fmt.Fprintf(&sb, "\tCL:%s", cmdline)
	}
	sb.WriteByte('\n')

	for _, c := range comments {
		fmt.Fprintf(&sb, "@CO\t%s\n", c)
	}

	return sb.String()
}

// Appends the BAM header with the given SAM text and no references.
func AppendHeader(out []byte, text string) []byte {
	var index int

	out = append(out, bamMagic...)
	index, out = enlarge(out, 4)
	binary.LittleEndian.PutUint32(out[index:], uint32(len(text)))
	out = append(out, text...)

	// n_ref
	index, out = enlarge(out, 4)
	binary.LittleEndian.PutUint32(out[index:], 0)

	return out
}

// Appends an unmapped BAM record. qual holds Phred values.
func AppendRecord(out []byte, name string, seq, qual []byte) ([]byte, error) {
	var index int

	if len(name) > maxNameLen {
		return out, fmt.Errorf("%w: %d bytes: %s", ErrNameTooLong, len(name), name)
	}

	if len(seq) != len(qual) {
		return out, fmt.Errorf("sequence and quality lengths differ for %s: %d:%d", name, len(seq), len(qual))
	}

	index, out = enlarge(out, 4)
	blockSizeIndex := index

	// refID, pos, l_read_name, mapq, bin, n_cigar_op, flag, l_seq,
	// next refID, next pos, tlen
	index, out = enlarge(out, 32)
	binary.LittleEndian.PutUint32(out[index:], minus1)
	binary.LittleEndian.PutUint32(out[index+4:], minus1)
	out[index+8] = uint8(len(name) + 1)
	out[index+9] = 0
	binary.LittleEndian.PutUint16(out[index+10:], unmappedBin)
	binary.LittleEndian.PutUint16(out[index+12:], 0)
	binary.LittleEndian.PutUint16(out[index+14:], flagUnmapped)
	binary.LittleEndian.PutUint32(out[index+16:], uint32(len(seq)))
	binary.LittleEndian.PutUint32(out[index+20:], minus1)
	binary.LittleEndian.PutUint32(out[index+24:], minus1)
	binary.LittleEndian.PutUint32(out[index+28:], 0)

	index, out = enlarge(out, len(name)+1)
	copy(out[index:], name)
	out[index+len(name)] = 0

	index, out = enlarge(out, (len(seq)+1)>>1)
	for i := 0; i < len(seq); i += 2 {
		b := nt16[seq[i]] << 4
		if i+1 < len(seq) {
			b |= nt16[seq[i+1]]
		}
		out[index+i/2] = b
	}

	out = append(out, qual...)

	binary.LittleEndian.PutUint32(out[blockSizeIndex:], uint32(len(out)-blockSizeIndex-4))
	return out, nil
}
