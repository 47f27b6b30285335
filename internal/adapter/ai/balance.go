package ai

// LargestBalanced returns the longest substring of s that opens with open
// ('[' or '{') and closes at its matching bracket, ignoring brackets inside
// string literals. It reports false when no such substring exists.
func LargestBalanced(s string, open byte) (string, bool) {
	closeFor := map[byte]byte{'[': ']', '{': '}'}
	if _, ok := closeFor[open]; !ok {
		return "", false
	}
	var (
		stack []int
		best  string
		pos   int
	)
	for _, sp := range splitSpans(s) {
		base := pos
		pos += len(sp.text)
		if sp.quoted {
			continue
		}
		for j := 0; j < len(sp.text); j++ {
			i := base + j
			switch c := s[i]; c {
			case '[', '{':
				stack = append(stack, i)
			case ']', '}':
				if len(stack) == 0 {
					continue
				}
				top := stack[len(stack)-1]
				if closeFor[s[top]] != c {
					// Mismatched nesting; nothing opened so far can balance.
					stack = stack[:0]
					continue
				}
				stack = stack[:len(stack)-1]
				if s[top] == open && i+1-top > len(best) {
					best = s[top : i+1]
				}
			}
		}
	}
	return best, best != ""
}
