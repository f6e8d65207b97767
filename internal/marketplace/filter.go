package marketplace

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"seedflow-backend/internal/domain/listing"
)

var ErrUnknownSortKey = errors.New("unknown sort key")

type SortKey string

const (
	SortNewest      SortKey = "newest"
	SortAPRAsc      SortKey = "apr-asc"
	SortFundingDesc SortKey = "funding-desc"
	SortTerm        SortKey = "term"
)

// ParseSortKey maps the query value to a SortKey; empty means newest.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortAPRAsc, SortFundingDesc, SortTerm:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// Criteria is the user's view selection. Empty dimensions do not restrict.
type Criteria struct {
	Countries []string
	Sectors   []listing.Sector
	Insurance []listing.Tag
	Search    string
	Sort      SortKey
}

func DefaultCriteria() Criteria { return Criteria{Sort: SortNewest} }

// Clear is the "clear all filters" action.
func (c Criteria) Clear() Criteria { return DefaultCriteria() }

func (c Criteria) IsDefault() bool {
	return len(c.Countries) == 0 && len(c.Sectors) == 0 && len(c.Insurance) == 0 &&
		strings.TrimSpace(c.Search) == "" && (c.Sort == "" || c.Sort == SortNewest)
}

// Key is a canonical fingerprint: selection order does not matter. Every
// value is length-prefixed so no input can forge another selection's key.
func (c Criteria) Key() string {
	sectors := make([]string, 0, len(c.Sectors))
	for _, s := range c.Sectors {
		sectors = append(sectors, string(s))
	}
	tags := make([]string, 0, len(c.Insurance))
	for _, t := range c.Insurance {
		tags = append(tags, string(t))
	}
	sk := c.Sort
	if sk == "" {
		sk = SortNewest
	}

	var b strings.Builder
	writeSet(&b, c.Countries)
	writeSet(&b, sectors)
	writeSet(&b, tags)
	writeField(&b, strings.ToLower(strings.TrimSpace(c.Search)))
	writeField(&b, string(sk))
	return b.String()
}

func writeSet(b *strings.Builder, vals []string) {
	sorted := append([]string(nil), vals...)
	sort.Strings(sorted)
	fmt.Fprintf(b, "%d[", len(sorted))
	for _, v := range sorted {
		writeField(b, v)
	}
	b.WriteByte(']')
}

func writeField(b *strings.Builder, v string) {
	fmt.Fprintf(b, "%d:%s", len(v), v)
}

// FilterAndSort projects listings through c. It never modifies its input and
// returns the same order for the same inputs; ties keep input order.
func FilterAndSort(listings []*listing.Listing, c Criteria) []*listing.Listing {
	countries := make(map[string]struct{}, len(c.Countries))
	for _, x := range c.Countries {
		countries[strings.ToUpper(x)] = struct{}{}
	}
	sectors := make(map[listing.Sector]struct{}, len(c.Sectors))
	for _, x := range c.Sectors {
		sectors[x] = struct{}{}
	}
	search := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]*listing.Listing, 0, len(listings))
	for _, l := range listings {
		if len(countries) > 0 {
			if _, ok := countries[l.Country]; !ok {
				continue
			}
		}
		if len(sectors) > 0 {
			if _, ok := sectors[l.Sector]; !ok {
				continue
			}
		}
		if len(c.Insurance) > 0 && !anyTag(l.Insurance, c.Insurance) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Name), search) &&
			!strings.Contains(strings.ToLower(l.Story), search) {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, less(out, c.Sort))
	return out
}

func less(ls []*listing.Listing, k SortKey) func(i, j int) bool {
	switch k {
	case SortAPRAsc:
		return func(i, j int) bool { return ls[i].APR < ls[j].APR }
	case SortFundingDesc:
		return func(i, j int) bool { return ls[i].FundingRatio() > ls[j].FundingRatio() }
	case SortTerm:
		return func(i, j int) bool { return ls[i].TermMonths < ls[j].TermMonths }
	default:
		return func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) }
	}
}

func anyTag(have listing.Tags, want []listing.Tag) bool {
	for _, t := range want {
		if have.Has(t) {
			return true
		}
	}
	return false
}
