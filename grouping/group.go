// Package grouping clusters exercise records that share a base id and decides
// which of them are shown as one summed line.
package grouping

import (
	"math"
	"sort"
	"strings"

	"github.com/korjavin/integralsheet/latex"
	"github.com/korjavin/integralsheet/models"
)

// Combined is the value shown for a group or bucket as a whole.
type Combined struct {
	// Exact is the exact solution, or for a summed bucket the sum expression
	// of the member decimals ("1.5000 + 2.2500").
	Exact   string
	Decimal float64
}

// Bucket holds the records of one group that share an id letter.
type Bucket struct {
	Letter   string
	Records  []*models.Exercise
	Summed   bool
	Combined *Combined
}

// Precision is the decimal precision of the bucket's first record.
func (b *Bucket) Precision() int {
	if len(b.Records) == 0 {
		return models.DefaultPrecision
	}
	return b.Records[0].Precision()
}

// Units is the effective unit of the bucket's first record.
func (b *Bucket) Units() string {
	if len(b.Records) == 0 {
		return ""
	}
	return b.Records[0].Units()
}

// Group is every record sharing one base id, in input order.
type Group struct {
	ID               string
	Records          []*models.Exercise
	Buckets          []*Bucket
	HasMultipleParts bool
	Combined         *Combined
}

// ByID partitions records by base id. Groups come back ordered by SortKey;
// ids with equal keys keep their first-seen order.
func ByID(records []models.Exercise) []*Group {
	var groups []*Group
	byID := make(map[string]*Group)
	for i := range records {
		rec := &records[i]
		id := strings.TrimSpace(string(rec.ID))
		g, ok := byID[id]
		if !ok {
			g = &Group{ID: id}
			byID[id] = g
			groups = append(groups, g)
		}
		g.Records = append(g.Records, rec)
	}
	sort.SliceStable(groups, func(i, j int) bool { return Less(groups[i].ID, groups[j].ID) })

	for _, g := range groups {
		g.build()
	}
	return groups
}

func (g *Group) build() {
	for _, rec := range g.Records {
		if rec.IDPart != nil {
			g.HasMultipleParts = true
		}
	}
	if len(g.Records) > 1 {
		g.HasMultipleParts = true
	}

	byLetter := make(map[string]*Bucket)
	for _, rec := range g.Records {
		letter := rec.Letter()
		b, ok := byLetter[letter]
		if !ok {
			b = &Bucket{Letter: letter}
			byLetter[letter] = b
			g.Buckets = append(g.Buckets, b)
		}
		b.Records = append(b.Records, rec)
	}
	// "" sorts first, so the unlettered bucket leads.
	sort.SliceStable(g.Buckets, func(i, j int) bool { return g.Buckets[i].Letter < g.Buckets[j].Letter })

	for _, b := range g.Buckets {
		sort.SliceStable(b.Records, func(i, j int) bool { return part(b.Records[i]) < part(b.Records[j]) })
		if Summable(b) {
			b.Summed = true
			b.Combined = sum(b)
		}
	}

	switch {
	case len(g.Buckets) == 1 && g.Buckets[0].Summed:
		g.Combined = g.Buckets[0].Combined
	case len(g.Records) == 1 && g.Records[0].Solution.Available():
		s := g.Records[0].Solution
		g.Combined = &Combined{Exact: *s.Exact, Decimal: *s.Decimal}
	}
}

// part orders records without an id_part before numbered ones.
func part(rec *models.Exercise) int {
	if rec.IDPart == nil {
		return math.MinInt
	}
	return *rec.IDPart
}

// Summable reports whether a bucket is shown as a single summed line: it has
// more than one record, every record has a decimal solution, and either it is
// unlettered or all records share the same units.
func Summable(b *Bucket) bool {
	if len(b.Records) < 2 {
		return false
	}
	for _, rec := range b.Records {
		if rec.Solution == nil || rec.Solution.Decimal == nil {
			return false
		}
	}
	if b.Letter == "" {
		return true
	}
	units := b.Records[0].Units()
	for _, rec := range b.Records[1:] {
		if rec.Units() != units {
			return false
		}
	}
	return true
}

func sum(b *Bucket) *Combined {
	precision := b.Precision()
	var (
		total float64
		expr  strings.Builder
	)
	for i, rec := range b.Records {
		v := *rec.Solution.Decimal
		total += v
		switch {
		case i == 0:
			expr.WriteString(latex.FormatDecimal(v, precision))
		case v < 0:
			expr.WriteString(" - ")
			expr.WriteString(latex.FormatDecimal(-v, precision))
		default:
			expr.WriteString(" + ")
			expr.WriteString(latex.FormatDecimal(v, precision))
		}
	}
	return &Combined{Exact: expr.String(), Decimal: total}
}

// Stats counts groups made of a single record and groups made of several.
func Stats(groups []*Group) (individual, grouped int) {
	for _, g := range groups {
		if len(g.Records) > 1 {
			grouped++
		} else {
			individual++
		}
	}
	return individual, grouped
}
