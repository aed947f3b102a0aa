package latex

import "regexp"

// identRe matches one identifier, optionally already escaped as a command.
var identRe = regexp.MustCompile(`\\?[0-9A-Za-z_]+`)

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// replaceWords substitutes whole identifiers found in table.
func replaceWords(s string, table map[string]string) string {
	return identRe.ReplaceAllStringFunc(s, func(tok string) string {
		if tok[0] == '\\' {
			return tok
		}
		if repl, ok := table[tok]; ok {
			return repl
		}
		return tok
	})
}

// matchForward returns the index of the delimiter closing s[i], or -1.
func matchForward(s string, i int, open, close byte) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// matchBackward returns the index of the delimiter opening s[i], or -1.
func matchBackward(s string, i int, open, close byte) int {
	depth := 0
	for j := i; j >= 0; j-- {
		switch s[j] {
		case close:
			depth++
		case open:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func skipBlanks(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func skipBlanksBack(s string, i int) int {
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\t') {
		i--
	}
	return i
}

// stripParens removes one pair of parentheses enclosing the whole of s.
func stripParens(s string) string {
	if len(s) >= 2 && s[0] == '(' && matchForward(s, 0, '(', ')') == len(s)-1 {
		return s[1 : len(s)-1]
	}
	return s
}

// callToBraces rewrites the first unescaped name(inner) into prefix + inner + "}".
// Calls with unbalanced parentheses are left untouched.
func callToBraces(s, name, prefix string) (string, bool) {
	for _, loc := range identRe.FindAllStringIndex(s, -1) {
		if s[loc[0]:loc[1]] != name {
			continue
		}
		open := skipBlanks(s, loc[1])
		if open >= len(s) || s[open] != '(' {
			continue
		}
		end := matchForward(s, open, '(', ')')
		if end < 0 {
			continue
		}
		return s[:loc[0]] + prefix + s[open+1:end] + "}" + s[end+1:], true
	}
	return s, false
}
