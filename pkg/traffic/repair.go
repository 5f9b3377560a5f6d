package traffic

import "strings"

// Repair applies the single best-effort fix to a span that failed to parse:
//
//  1. trailing ',' then ';' then ')' then '}' runs are stripped, one kind
//     after the other;
//  2. a closer is appended for every '{' or '[' left unclosed, innermost
//     first.
//
// Every bracket character counts, including those inside string literals.
// Repair does not check that the result parses.
func Repair(span string) string {
	fixed := span
	for _, cut := range []string{",", ";", ")", "}"} {
		fixed = strings.TrimRight(fixed, cut)
	}
	if fixed == "" {
		return ""
	}
	return fixed + closers(fixed)
}

// closers returns the brackets needed to close s. The number of '}' and ']'
// equals the excess of '{' over '}' and '[' over ']' across all of s. The
// string-aware stack of unclosed openers only decides their order; any
// surplus is appended after it.
func closers(s string) string {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}', ']':
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		}
	}

	var b strings.Builder
	need := map[byte]int{
		'{': max(strings.Count(s, "{")-strings.Count(s, "}"), 0),
		'[': max(strings.Count(s, "[")-strings.Count(s, "]"), 0),
	}
	for i := len(stack) - 1; i >= 0; i-- {
		op := stack[i]
		if need[op] == 0 {
			continue
		}
		need[op]--
		b.WriteByte(closerFor(op))
	}
	b.WriteString(strings.Repeat("}", need['{']))
	b.WriteString(strings.Repeat("]", need['[']))
	return b.String()
}

func closerFor(opener byte) byte {
	if opener == '[' {
		return ']'
	}
	return '}'
}
