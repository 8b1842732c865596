// Package fragment decomposes regex patterns into literal substrings and
// maintains the multi-pattern search automaton over all interned fragments.
//
// A fragment is a necessary substring: any string the regex matches must
// contain each of the pattern's fragments in order. Fragment presence is a
// cheap filter in front of full regex verification.
package fragment

// Extract parses a regex pattern into the ordered list of its literal
// substrings. Fragments shorter than minLen bytes are dropped; ordering and
// duplicates are preserved.
//
// The scan tracks parenthesis depth and character-class state. Characters
// contribute to the current fragment only at zero depth outside a class.
// The function is total: malformed patterns yield whatever fragments fall
// out of the scan, and regex compilation elsewhere is the authority on
// validity.
func Extract(pattern string, minLen int) []string {
	var fragments []string
	var current []rune
	runes := []rune(pattern)
	depth := 0
	inCharClass := false

	flush := func() {
		if len(current) > 0 {
			fragments = append(fragments, string(current))
			current = current[:0]
		}
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\\':
			// Escape consumes the next character. At zero depth the escaped
			// character is a literal; inside a group or class it is skipped.
			if i+1 < len(runes) {
				i++
				if depth == 0 && !inCharClass {
					current = append(current, runes[i])
				}
			}
		case ch == '[' && depth == 0 && !inCharClass:
			inCharClass = true
			flush()
		case ch == ']' && inCharClass:
			inCharClass = false
		case ch == '(':
			depth++
			if depth == 1 {
				flush()
			}
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case (ch == '.' || ch == '*' || ch == '+' || ch == '?' || ch == '|' || ch == '^' || ch == '$') && depth == 0 && !inCharClass:
			flush()
		case depth == 0 && !inCharClass:
			current = append(current, ch)
		}
	}
	flush()

	if minLen <= 1 {
		return fragments
	}
	kept := fragments[:0]
	for _, f := range fragments {
		if len(f) >= minLen {
			kept = append(kept, f)
		}
	}
	return kept
}
