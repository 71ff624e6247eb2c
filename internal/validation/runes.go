package validation

import "unicode"

func onlyLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func onlyDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// hasRun reports whether s holds n or more identical characters in a row.
func hasRun(s string, n int) bool {
	var prev rune
	count := 0
	for _, r := range s {
		if count > 0 && r == prev {
			count++
		} else {
			prev, count = r, 1
		}
		if count >= n {
			return true
		}
	}
	return false
}

func distinct(s string) int {
	seen := make(map[rune]struct{})
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}

// ascendingLetters matches three consecutive letters like "abc" or "XyZ".
func ascendingLetters(s string) bool {
	rs := []rune(s)
	for i := 0; i+2 < len(rs); i++ {
		a, b, c := rs[i], rs[i+1], rs[i+2]
		if !unicode.IsLetter(a) || !unicode.IsLetter(b) || !unicode.IsLetter(c) {
			continue
		}
		a, b, c = unicode.ToLower(a), unicode.ToLower(b), unicode.ToLower(c)
		if a+1 == b && b+1 == c {
			return true
		}
	}
	return false
}

func ascendingDigits(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		a, b, c := s[i], s[i+1], s[i+2]
		if !isDigitByte(a) || !isDigitByte(b) || !isDigitByte(c) {
			continue
		}
		if a+1 == b && b+1 == c {
			return true
		}
	}
	return false
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }

// isNonWord mirrors the regexp class \W.
func isNonWord(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
