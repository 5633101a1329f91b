// Package presenter turns the in-memory record collection into
// display-ready data. Nothing here performs I/O or mutates its input.
//
// The list pipeline is: filter -> sort -> paginate, with statistics
// computed separately over the full, unfiltered collection.
package presenter

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aanand-mishra/student-results/internal/types"
)

// PageSize is the number of rows on one list page.
const PageSize = 5

// AllSections disables the section filter.
const AllSections = "all"

// Sort keys.
const (
	SortByName    = "name"
	SortByMarks   = "marks"
	SortBySection = "section"
)

// collationTag drives locale-aware comparison of names and sections.
var collationTag = language.English

// Query is the user's current view of the list.
type Query struct {
	Search  string
	Section string
	Sort    string
	Page    int
}

// DefaultQuery is the list as first shown: no search, every section,
// sorted by name, first page.
func DefaultQuery() Query {
	return Query{
		Section: AllSections,
		Sort:    SortByName,
		Page:    1,
	}
}

// Stats summarises the whole collection.
type Stats struct {
	Count   int
	Average float64
	Highest float64
}

// AverageText renders the average with one decimal place.
func (s Stats) AverageText() string {
	return strconv.FormatFloat(s.Average, 'f', 1, 64)
}

// HighestText renders the highest marks without trailing zeros.
func (s Stats) HighestText() string {
	return types.FormatMarks(s.Highest)
}

// ListView is everything the list page needs to render.
type ListView struct {
	Rows       []Detail
	Matched    int
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool

	// Stats is nil when there are no records at all.
	Stats    *Stats
	Sections []string
	Query    Query
}

// RowNumber is the running position of Rows[i] across all pages, from 1.
func (v ListView) RowNumber(i int) int {
	return (v.Page-1)*PageSize + i + 1
}

// Present runs the whole list pipeline for one render.
func Present(records []types.Student, q Query) ListView {
	visible := Sort(Filter(records, q.Search, q.Section), q.Sort)
	total := TotalPages(len(visible))
	page := ClampPage(q.Page, total)

	rows := Paginate(visible, page)
	details := make([]Detail, 0, len(rows))
	for _, r := range rows {
		details = append(details, Describe(r))
	}

	var stats *Stats
	if s, ok := Summarize(records); ok {
		stats = &s
	}

	q.Page = page
	return ListView{
		Rows:       details,
		Matched:    len(visible),
		Page:       page,
		TotalPages: total,
		HasPrev:    page > 1,
		HasNext:    page < total,
		Stats:      stats,
		Sections:   SectionsOf(records),
		Query:      q,
	}
}

// Filter keeps records whose name contains search (case-insensitive)
// and whose section matches, unless section is AllSections or empty.
func Filter(records []types.Student, search, section string) []types.Student {
	fold := cases.Fold()
	needle := fold.String(search)

	out := make([]types.Student, 0, len(records))
	for _, r := range records {
		if !strings.Contains(fold.String(r.Name), needle) {
			continue
		}
		if section != AllSections && section != "" && r.Section != section {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort returns a stably sorted copy. Names and sections ascend in
// collation order, marks descend, and an unknown key keeps input order.
func Sort(records []types.Student, key string) []types.Student {
	out := slices.Clone(records)

	switch key {
	case SortByName:
		col := collate.New(collationTag)
		slices.SortStableFunc(out, func(a, b types.Student) int {
			return col.CompareString(a.Name, b.Name)
		})
	case SortBySection:
		col := collate.New(collationTag)
		slices.SortStableFunc(out, func(a, b types.Student) int {
			return col.CompareString(a.Section, b.Section)
		})
	case SortByMarks:
		slices.SortStableFunc(out, func(a, b types.Student) int {
			return cmp.Compare(b.Marks, a.Marks)
		})
	}

	return out
}

// TotalPages is ceil(n / PageSize).
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// ClampPage holds page to [1, totalPages]. With no pages at all the
// list still sits on page 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns the slice [(page-1)*PageSize, page*PageSize) of records.
// Pages outside the collection are empty.
func Paginate(records []types.Student, page int) []types.Student {
	if page < 1 {
		return []types.Student{}
	}

	start := (page - 1) * PageSize
	if start >= len(records) {
		return []types.Student{}
	}
	end := min(start+PageSize, len(records))

	return slices.Clone(records[start:end])
}

// Summarize reports count, average and highest marks. It returns false
// for an empty collection so callers can omit the block entirely.
func Summarize(records []types.Student) (Stats, bool) {
	if len(records) == 0 {
		return Stats{}, false
	}

	sum := 0.0
	highest := math.Inf(-1)
	for _, r := range records {
		sum += r.Marks
		highest = max(highest, r.Marks)
	}

	return Stats{
		Count:   len(records),
		Average: math.Round(sum/float64(len(records))*10) / 10,
		Highest: highest,
	}, true
}

// SectionsOf lists the distinct sections present, in first-seen order.
func SectionsOf(records []types.Student) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Section]; ok {
			continue
		}
		seen[r.Section] = struct{}{}
		out = append(out, r.Section)
	}
	return out
}
