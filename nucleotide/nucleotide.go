// Package nucleotide provides the sequence preparation steps that callers of
// the kmerhash sliding hashers perform before hashing: masking to the
// ACGT/N alphabet and computing reverse complements.
package nucleotide

var (
	complement [256]byte
	acgtMask   [256]byte
)

func init() {
	for i := range complement {
		complement[i] = 'N'
		acgtMask[i] = 'N'
	}
	complement['A'] = 'T'
	complement['T'] = 'A'
	complement['C'] = 'G'
	complement['G'] = 'C'

	for _, b := range []byte("ACGT") {
		acgtMask[b] = b
	}
}

// Complement returns the Watson-Crick complement of b.
// Bytes outside ACGT complement to 'N'.
func Complement(b byte) byte {
	return complement[b]
}

// ReverseComplement appends the reverse complement of src to dst[:0] and
// returns the result. dst may be nil; it must not overlap src.
func ReverseComplement(dst, src []byte) []byte {
	n := len(src)
	dst = grow(dst, n)
	for i := 0; i < n; i++ {
		dst[i] = complement[src[n-1-i]]
	}
	return dst
}

// MaskACGT appends src to dst[:0] with every byte outside ACGT replaced by
// 'N', and returns the result. dst may alias src.
func MaskACGT(dst, src []byte) []byte {
	n := len(src)
	dst = grow(dst, n)
	for i := 0; i < n; i++ {
		dst[i] = acgtMask[src[i]]
	}
	return dst
}

func grow(dst []byte, n int) []byte {
	if cap(dst) < n {
		return make([]byte, n)
	}
	return dst[:n]
}
