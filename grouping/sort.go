package grouping

import (
	"regexp"
	"strconv"
)

var sortKeyRe = regexp.MustCompile(`^(\d+)([a-z]*)`)

// SortKey splits an exercise id into its numeric prefix and trailing letters.
// Ids that do not start with a digit sort as (0, id).
func SortKey(id string) (int, string) {
	m := sortKeyRe.FindStringSubmatch(id)
	if m == nil {
		return 0, id
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, id
	}
	return n, m[2]
}

// Less orders ids so that "2" < "10" < "10a".
func Less(a, b string) bool {
	an, as := SortKey(a)
	bn, bs := SortKey(b)
	if an != bn {
		return an < bn
	}
	return as < bs
}
