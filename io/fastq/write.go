package fastq

// Appends a FASTQ record to dst. qual holds Phred values and is written as
// Phred+33.
func Append(dst []byte, id string, sequence, qual []byte) []byte {
	dst = append(dst, '@')
	dst = append(dst, id...)
	dst = append(dst, '\n')
	dst = append(dst, sequence...)
	dst = append(dst, "\n+\n"...)
	for _, q := range qual {
		dst = append(dst, q+'!')
	}

	return append(dst, '\n')
}
