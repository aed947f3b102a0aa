package latex

// convertFraction rewrites the first convertible a/b into \frac{a}{b}. The
// numerator is the run of atoms joined by '*' left of the slash, the
// denominator a single atom right of it. It has to see raw call syntax such as
// cos(1), so it runs before function names are escaped.
func convertFraction(s string) (string, bool) {
	for p := 0; p < len(s); p++ {
		if s[p] != '/' {
			continue
		}
		numEnd := skipBlanksBack(s, p)
		numStart, ok := atomStart(s, numEnd)
		if !ok {
			continue
		}
		for numStart > 0 && s[numStart-1] == '*' {
			prev, ok := atomStart(s, numStart-1)
			if !ok {
				break
			}
			numStart = prev
		}
		denStart := skipBlanks(s, p+1)
		denEnd, ok := atomEnd(s, denStart)
		if !ok {
			continue
		}
		num := stripParens(s[numStart:numEnd])
		den := stripParens(s[denStart:denEnd])
		return s[:numStart] + `\frac{` + num + `}{` + den + `}` + s[denEnd:], true
	}
	return s, false
}

// atomStart scans backwards from end (exclusive) over one atom: a number, an
// identifier or command, an optional call or brace group, and any ^{...}
// suffixes.
func atomStart(s string, end int) (int, bool) {
	i := end
	for i > 0 && s[i-1] == '}' {
		open := matchBackward(s, i-1, '{', '}')
		if open <= 0 || s[open-1] != '^' {
			break
		}
		i = open - 1
	}
	base := i
	switch {
	case i > 0 && s[i-1] == ')':
		open := matchBackward(s, i-1, '(', ')')
		if open < 0 {
			return 0, false
		}
		i = open
		i = identStart(s, i)
	case i > 0 && s[i-1] == '}':
		for i > 0 && s[i-1] == '}' {
			open := matchBackward(s, i-1, '{', '}')
			if open < 0 {
				return 0, false
			}
			i = open
		}
		i = identStart(s, i)
	case i > 0 && (isWordByte(s[i-1]) || s[i-1] == '.'):
		for i > 0 && (isWordByte(s[i-1]) || s[i-1] == '.') {
			i--
		}
		if i > 0 && s[i-1] == '\\' {
			i--
		}
	}
	if i == base {
		return 0, false
	}
	return i, true
}

// identStart extends i backwards over an identifier and its command backslash.
func identStart(s string, i int) int {
	for i > 0 && isWordByte(s[i-1]) {
		i--
	}
	if i > 0 && s[i-1] == '\\' {
		i--
	}
	return i
}

// atomEnd scans forwards from start over one atom, mirroring atomStart.
func atomEnd(s string, start int) (int, bool) {
	i := start
	if i >= len(s) {
		return 0, false
	}
	switch {
	case s[i] == '(':
		end := matchForward(s, i, '(', ')')
		if end < 0 {
			return 0, false
		}
		i = end + 1
	case s[i] == '\\' || isWordByte(s[i]) || s[i] == '.':
		if s[i] == '\\' {
			i++
		}
		for i < len(s) && (isWordByte(s[i]) || s[i] == '.') {
			i++
		}
		if i < len(s) && s[i] == '(' {
			end := matchForward(s, i, '(', ')')
			if end < 0 {
				return 0, false
			}
			i = end + 1
		}
		for i < len(s) && s[i] == '{' {
			end := matchForward(s, i, '{', '}')
			if end < 0 {
				return 0, false
			}
			i = end + 1
		}
	default:
		return 0, false
	}
	for i+1 < len(s) && s[i] == '^' && s[i+1] == '{' {
		end := matchForward(s, i+1, '{', '}')
		if end < 0 {
			return 0, false
		}
		i = end + 1
	}
	if i == start || (i == start+1 && s[start] == '\\') {
		return 0, false
	}
	return i, true
}
