package wikiindex

import (
	"unicode"
	"unicode/utf8"
)

// DefaultBucketCount is the number of hash buckets in the title and id
// tables unless a Builder is told otherwise.
const DefaultBucketCount = 6000000

const (
	hashModulus = 982451653
	powerMask   = 0x0003FFFFFFFFFFFF
	hashBase    = 53
)

// An ArticleNumber is the dense, zero based position of an article in
// catalog order.  It is only meaningful for the build that assigned it.
type ArticleNumber uint32

// TitleHash is a polynomial rolling hash over the code points of s.
//
// The running power is masked to 50 bits after each multiply.  The sum
// is kept modulo the prime as it goes, which gives the same result as
// reducing the exact sum at the end.
func TitleHash(s string) uint64 {
	var h uint64
	p := uint64(1)
	for _, r := range s {
		h = (h + uint64(r)%hashModulus*(p%hashModulus)) % hashModulus
		p = (p * hashBase) & powerMask
	}
	return h
}

// UpperFirst upper-cases the first character of a title, which is how
// titles are recorded in the dump.
func UpperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || r == utf8.RuneError {
		return s
	}
	u := unicode.ToUpper(r)
	if u == r {
		return s
	}
	return string(u) + s[n:]
}

func titleBucket(title string, buckets uint32) uint32 {
	return uint32(TitleHash(title) % uint64(buckets))
}

func idBucket(id uint64, buckets uint32) uint32 {
	return uint32(id % uint64(buckets))
}
