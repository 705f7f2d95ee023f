// The dna package defines nucleotide constants and sequence helpers shared by
// the reference store, the error models and the record writers.
// Sequences are plain upper-case byte slices over ACGT, with N marking
// ambiguous reference positions.
package dna

const (
	A = 0
	T = 1
	C = 2
	G = 3
)

var ntNames = "ATCG"

// lookup tables, 255 means not a nucleotide
var base2nt [256]byte
var complement [256]byte

func init() {
	for i := range base2nt {
		base2nt[i] = 255
		complement[i] = 'N'
	}

	for n, b := range []byte(ntNames) {
		base2nt[b] = byte(n)
		base2nt[b+'a'-'A'] = byte(n)
	}

	complement['A'] = 'T'
	complement['T'] = 'A'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['a'] = 't'
	complement['t'] = 'a'
	complement['c'] = 'g'
	complement['g'] = 'c'
	complement['n'] = 'n'
}

// Converts a numeric value of a nucleotide (nt) to its base
func Nt2Base(nt int) byte {
	if nt < 0 || nt >= len(ntNames) {
		return 'N'
	}

	return ntNames[nt]
}

// Converts a base to its numeric value, -1 if the base is not A, T, C or G
func Base2Nt(b byte) int {
	nt := base2nt[b]
	if nt == 255 {
		return -1
	}

	return int(nt)
}

// Returns the complementary base. Anything that is not a nucleotide
// becomes N.
func Complement(b byte) byte {
	return complement[b]
}

// Reverse-complements seq into dst and returns it. dst may be nil.
// dst and seq must not overlap.
func RevComp(dst, seq []byte) []byte {
	if cap(dst) < len(seq) {
		dst = make([]byte, len(seq))
	}
	dst = dst[:len(seq)]

	m := len(seq) - 1
	for i, b := range seq {
		dst[m-i] = Complement(b)
	}

	return dst
}

// Reverses a byte slice in place. Used for quality arrays.
func Reverse(s []byte) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Normalizes a reference base: lower case is converted to upper case and the
// IUPAC ambiguity codes become N. Returns false if b is not a nucleotide code.
func Normalize(b byte) (byte, bool) {
	switch b {
	case 'A', 'C', 'G', 'T', 'N':
		return b, true

	case 'a', 'c', 'g', 't', 'n':
		return b - 'a' + 'A', true

	case 'R', 'Y', 'S', 'W', 'K', 'M', 'B', 'D', 'H', 'V',
		'r', 'y', 's', 'w', 'k', 'm', 'b', 'd', 'h', 'v':
		return 'N', true
	}

	return 0, false
}

// Number of G and C bases in a sequence
func GCcount(seq []byte) (n int) {
	for _, b := range seq {
		nt := Base2Nt(b)
		if nt == C || nt == G {
			n++
		}
	}

	return
}

// Calculates the GC content of a sequence.
// Returns a value between 0 (no GC) and 1.
func GCcontent(seq []byte) float64 {
	if len(seq) == 0 {
		return 0
	}

	return float64(GCcount(seq)) / float64(len(seq))
}

// Implements Levenshtein distance
func Distance(a, b []byte) int {
	f := make([]int, len(b)+1)

	for j := range f {
		f[j] = j
	}

	for _, ca := range a {
		j := 1
		fj1 := f[0] // fj1 is the value of f[j - 1] in last iteration
		f[0]++
		for _, cb := range b {
			mn := min(f[j]+1, f[j-1]+1) // delete & insert
			if cb != ca {
				mn = min(mn, fj1+1) // change
			} else {
				mn = min(mn, fj1) // matched
			}

			fj1, f[j] = f[j], mn // save f[j] to fj1(j is about to increase), update f[j] to mn
			j++
		}
	}

	return f[len(f)-1]
}

// Calculates the edit script that converts from into to.
// Returns the distance and a string with one action per position:
// '-' match, 'R' replace, 'I' insert, 'D' delete.
func Diff(from, to []byte) (int, string) {
	m := len(from)
	n := len(to)

	v := make([][]int, m+1)
	b := make([][]byte, m+1)
	b[0] = make([]byte, n+1)
	v[0] = make([]int, n+1)
	for i := 0; i < n+1; i++ {
		v[0][i] = i
		b[0][i] = 'I'
	}

	for i := 0; i < m; i++ {
		v[i+1] = make([]int, n+1)
		b[i+1] = make([]byte, n+1)
		v[i+1][0] = i + 1
		b[i+1][0] = 'D'
		for j := 0; j < n; j++ {
			deletionCost := v[i][j+1] + 1
			insertionCost := v[i+1][j] + 1
			substitutionCost := v[i][j]
			b[i+1][j+1] = 'R'
			if from[i] != to[j] {
				substitutionCost++
			}

			mincost := substitutionCost
			if mincost > insertionCost {
				mincost = insertionCost
				b[i+1][j+1] = 'I'
			}
			if mincost > deletionCost {
				mincost = deletionCost
				b[i+1][j+1] = 'D'
			}

			v[i+1][j+1] = mincost
		}
	}

	// now backtrack to get the actions
	diff := make([]byte, 0, m+n)
	for i, j := m, n; i > 0 || j > 0; {
		switch b[i][j] {
		case 'D':
			diff = append(diff, 'D')
			i--

		case 'R':
			if v[i-1][j-1] != v[i][j] {
				diff = append(diff, 'R')
			} else {
				diff = append(diff, '-')
			}
			i--
			j--

		case 'I':
			diff = append(diff, 'I')
			j--
		}
	}

	Reverse(diff)
	return v[m][n], string(diff)
}
