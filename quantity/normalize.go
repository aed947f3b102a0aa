package quantity

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/korjavin/integralsheet/latex"
)

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// factor is one term of a top-level product. power is meaningful only when
// opaque is empty.
type factor struct {
	base   string
	power  int
	opaque string
}

func (f factor) isCall() bool {
	return strings.HasSuffix(f.base, ")") && !strings.HasPrefix(f.base, "(")
}

func (f factor) key() string {
	if f.opaque != "" {
		return f.opaque
	}
	return f.base
}

func (f factor) String() string {
	switch {
	case f.opaque != "":
		return f.opaque
	case f.power == 1:
		return f.base
	default:
		return f.base + "**" + strconv.Itoa(f.power)
	}
}

// Normalize reduces an integrand to its shape: constant factors are dropped,
// repeated bases are merged into integer powers and the remaining factors are
// put in a canonical order, so "5*x*y", "y*x" and "x*y" all become "x*y".
// Powers are spelled with **. A constant integrand normalizes to "1". Sums at
// the top level are returned with blanks removed but otherwise untouched.
func Normalize(function string) string {
	s := strings.NewReplacer(" ", "", "\t", "", "^", "**").Replace(function)
	s = stripOuter(strings.TrimLeft(s, "+-"))
	if s == "" {
		return "1"
	}
	if hasTopLevelSum(s) {
		return s
	}

	terms, ok := splitProduct(s)
	if !ok {
		return s
	}
	merged := make(map[string]*factor)
	var order []*factor
	for _, t := range terms {
		base, exp := splitPower(t.text)
		if isConstant(base) && (exp == "" || isConstant(exp)) {
			continue
		}
		f := factor{base: simpleBase(base), power: 1}
		if exp != "" {
			n, err := strconv.Atoi(stripOuter(exp))
			if err != nil {
				f = factor{opaque: t.text}
				if t.divided {
					f.opaque = "1/" + t.text
				}
				order = append(order, &f)
				continue
			}
			f.power = n
		}
		if t.divided {
			f.power = -f.power
		}
		if m, ok := merged[f.base]; ok {
			m.power += f.power
			continue
		}
		merged[f.base] = &f
		order = append(order, &f)
	}

	kept := order[:0]
	for _, f := range order {
		if f.opaque == "" && f.power == 0 {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return "1"
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.isCall() != b.isCall() {
			return !a.isCall()
		}
		return a.key() < b.key()
	})
	parts := make([]string, len(kept))
	for i, f := range kept {
		parts[i] = f.String()
	}
	return strings.Join(parts, "*")
}

type term struct {
	text    string
	divided bool
}

// splitProduct splits s at top-level '*' and '/', leaving ** alone.
func splitProduct(s string) ([]term, bool) {
	var (
		terms   []term
		depth   int
		start   int
		divided bool
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return nil, false
			}
		case depth > 0:
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			i++
		case c == '*' || c == '/':
			if i == start {
				return nil, false
			}
			terms = append(terms, term{text: s[start:i], divided: divided})
			divided = c == '/'
			start = i + 1
		}
	}
	if depth != 0 || start >= len(s) {
		return nil, false
	}
	return append(terms, term{text: s[start:], divided: divided}), true
}

// splitPower splits base**exp at the first top-level **.
func splitPower(s string) (string, string) {
	depth := 0
	for i := 0; i+1 < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '*':
			if depth == 0 && s[i+1] == '*' {
				return s[:i], s[i+2:]
			}
		}
	}
	return s, ""
}

// hasTopLevelSum reports a binary + or - outside parentheses. Signs after an
// operator or an opening parenthesis are unary.
func hasTopLevelSum(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '+', '-':
			if depth == 0 && i > 0 && !strings.ContainsRune("*/(", rune(s[i-1])) {
				return true
			}
		}
	}
	return false
}

var plainRe = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// simpleBase drops parentheses around a lone symbol, so (x)**2 and x**2 merge.
func simpleBase(s string) string {
	if inner := stripOuter(s); plainRe.MatchString(inner) {
		return inner
	}
	return s
}

func stripOuter(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && closes(s) == len(s)-1 {
		s = s[1 : len(s)-1]
	}
	return s
}

// closes returns the index of the parenthesis closing s[0].
func closes(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// isConstant reports whether s mentions no free symbol: only numbers,
// named constants and function calls over them.
func isConstant(s string) bool {
	for _, loc := range identRe.FindAllStringIndex(s, -1) {
		if loc[0] > 0 && isDigitOrDot(s[loc[0]-1]) {
			// exponent marker of a literal such as 1e5
			continue
		}
		name := s[loc[0]:loc[1]]
		if latex.IsConstantName(name) {
			continue
		}
		if latex.IsFunctionName(name) && loc[1] < len(s) && s[loc[1]] == '(' {
			continue
		}
		return false
	}
	return true
}

func isDigitOrDot(c byte) bool {
	return c == '.' || c >= '0' && c <= '9'
}
