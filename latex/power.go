package latex

// normalizePowers turns base**exp and base^exp into base^{exp}. The base is
// left alone, so identifiers, numbers and closing parentheses all work. An
// exponent already in braces is not touched, which keeps the pass idempotent.
func normalizePowers(s string) string {
	out := make([]byte, 0, len(s)+8)
	for i := 0; i < len(s); {
		opLen := 0
		switch {
		case s[i] == '*' && i+1 < len(s) && s[i+1] == '*':
			opLen = 2
		case s[i] == '^':
			opLen = 1
		}
		if opLen == 0 {
			out = append(out, s[i])
			i++
			continue
		}
		start := skipBlanks(s, i+opLen)
		exp, end, ok := readExponent(s, start, opLen == 2)
		if !ok {
			out = append(out, s[i:i+opLen]...)
			i += opLen
			continue
		}
		// Powers associate to the right: x**y**2 is x**(y**2).
		if chained := chainEnd(s, end); chained > end {
			exp, end = s[start:chained], chained
		}
		for len(out) > 0 && (out[len(out)-1] == ' ' || out[len(out)-1] == '\t') {
			out = out[:len(out)-1]
		}
		out = append(out, "^{"...)
		out = append(out, normalizePowers(exp)...)
		out = append(out, '}')
		i = end
	}
	return string(out)
}

// chainEnd returns the end of the power operators that directly follow an
// exponent ending at end, or end itself when none follows.
func chainEnd(s string, end int) int {
	for {
		k := skipBlanks(s, end)
		opLen := 0
		switch {
		case k+1 < len(s) && s[k] == '*' && s[k+1] == '*':
			opLen = 2
		case k < len(s) && s[k] == '^':
			opLen = 1
		}
		if opLen == 0 {
			return end
		}
		j := skipBlanks(s, k+opLen)
		if j < len(s) && s[j] == '{' {
			close := matchForward(s, j, '{', '}')
			if close < 0 {
				return end
			}
			end = close + 1
			continue
		}
		_, next, ok := readExponent(s, j, opLen == 2)
		if !ok {
			return end
		}
		end = next
	}
}

// readExponent reads the operand of a power operator starting at j. A
// parenthesised operand is returned without its parentheses. After ** an
// identifier may be several characters long; after ^ only one letter is taken,
// since x^2y means x^{2}y.
func readExponent(s string, j int, starStar bool) (string, int, bool) {
	if j >= len(s) {
		return "", 0, false
	}
	switch s[j] {
	case '{':
		return "", 0, false
	case '(':
		end := matchForward(s, j, '(', ')')
		if end < 0 {
			return "", 0, false
		}
		return s[j+1 : end], end + 1, true
	}

	k := j
	if s[k] == '-' || s[k] == '+' {
		k++
	}
	start := k
	switch {
	case k < len(s) && isDigit(s[k]):
		for k < len(s) && (isDigit(s[k]) || s[k] == '.') {
			k++
		}
	case k < len(s) && s[k] == '\\':
		k++
		for k < len(s) && isLetter(s[k]) {
			k++
		}
		if k == start+1 {
			return "", 0, false
		}
	case k < len(s) && isLetter(s[k]):
		k++
		if starStar {
			for k < len(s) && isWordByte(s[k]) {
				k++
			}
		}
	}
	if k == start {
		return "", 0, false
	}
	return s[j:k], k, true
}
