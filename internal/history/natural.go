package history

import (
	"strings"
	"unicode"
)

// NaturalCompare compares two strings the way people read release labels:
// runs of digits compare by numeric value and everything else compares
// case-insensitively, so "v2" sorts before "v10" and "V2" equals "v2".
// Only ASCII digits form numeric runs; other scripts' digits compare as text.
// It returns -1, 0 or 1.
func NaturalCompare(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0

	for i < len(ar) && j < len(br) {
		aDigit := isDigit(ar[i])
		bDigit := isDigit(br[j])

		if aDigit && bDigit {
			ai := scanDigits(ar, i)
			bj := scanDigits(br, j)
			if c := compareNumeric(ar[i:ai], br[j:bj]); c != 0 {
				return c
			}
			i, j = ai, bj
			continue
		}

		ca := unicode.ToLower(ar[i])
		cb := unicode.ToLower(br[j])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	// Shared prefix: the shorter string sorts first
	switch {
	case len(ar)-i < len(br)-j:
		return -1
	case len(ar)-i > len(br)-j:
		return 1
	}
	return 0
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// scanDigits returns the index just past the digit run starting at start
func scanDigits(r []rune, start int) int {
	end := start
	for end < len(r) && isDigit(r[end]) {
		end++
	}
	return end
}

// compareNumeric compares two digit runs by value without parsing, so runs
// longer than an int64 still order correctly.
func compareNumeric(a, b []rune) int {
	sa := strings.TrimLeft(string(a), "0")
	sb := strings.TrimLeft(string(b), "0")

	if len(sa) != len(sb) {
		if len(sa) < len(sb) {
			return -1
		}
		return 1
	}
	return strings.Compare(sa, sb)
}
