// Package impact computes platform-wide statistics from the listing store
// and the oracle event log.
package impact

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/domain/oracle"
	"seedflow-backend/internal/marketplace"
)

var countryNames = map[string]string{
	"KE": "Kenya",
	"UG": "Uganda",
	"TZ": "Tanzania",
	"BD": "Bangladesh",
	"PH": "Philippines",
	"VN": "Vietnam",
	"KH": "Cambodia",
}

type Share struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Claims struct {
	Type   listing.Tag `json:"type"`
	Count  int         `json:"count"`
	Amount float64     `json:"amount"`
}

type Month struct {
	Month  string  `json:"month"`
	Funded float64 `json:"funded"`
}

type Stats struct {
	TotalFunded float64        `json:"total_funded"`
	Borrowers   int            `json:"borrowers"`
	AverageLoan float64        `json:"average_loan"`
	SuccessRate float64        `json:"success_rate"`
	Countries   []Share        `json:"countries"`
	Sectors     []Share        `json:"sectors"`
	Insurance   map[string]int `json:"insurance"`
	Claims      []Claims       `json:"claims"`
	Monthly     []Month        `json:"monthly"`
}

type Usecase struct {
	store *marketplace.Store
	inbox oracle.Inbox
}

func NewUsecase(store *marketplace.Store, inbox oracle.Inbox) *Usecase {
	return &Usecase{store: store, inbox: inbox}
}

func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	snap, err := u.store.Snapshot()
	if err != nil {
		return nil, err
	}
	events, err := u.inbox.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("oracle events: %w", err)
	}
	return Compute(snap.Listings, events), nil
}

// Compute is the pure part of Stats.
func Compute(ls []*listing.Listing, events []oracle.Event) *Stats {
	st := &Stats{
		Borrowers: len(ls),
		Countries: []Share{},
		Sectors:   []Share{},
		Insurance: map[string]int{},
		Claims:    []Claims{},
		Monthly:   []Month{},
	}
	for _, t := range listing.AllTags {
		st.Insurance[string(t)] = 0
	}

	var funded, requested decimal.Decimal
	countries := map[string]int{}
	sectors := map[string]int{}
	months := map[string]decimal.Decimal{}
	full := 0
	for _, l := range ls {
		funded = funded.Add(decimal.NewFromFloat(l.Funded))
		requested = requested.Add(decimal.NewFromFloat(l.Amount))
		countries[l.Country]++
		sectors[string(l.Sector)]++
		for _, t := range l.Insurance {
			st.Insurance[string(t)]++
		}
		if l.Amount > 0 && l.FullyFunded() {
			full++
		}
		m := l.CreatedAt.Format("2006-01")
		months[m] = months[m].Add(decimal.NewFromFloat(l.Funded))
	}

	st.TotalFunded = funded.Round(2).InexactFloat64()
	if n := len(ls); n > 0 {
		st.AverageLoan = requested.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
		st.SuccessRate = percent(full, n)
	}
	st.Countries = shares(countries, len(ls), func(code string) string {
		if name, ok := countryNames[code]; ok {
			return name
		}
		return code
	})
	st.Sectors = shares(sectors, len(ls), func(s string) string { return s })

	for m, v := range months {
		st.Monthly = append(st.Monthly, Month{Month: m, Funded: v.Round(2).InexactFloat64()})
	}
	sort.Slice(st.Monthly, func(i, j int) bool { return st.Monthly[i].Month < st.Monthly[j].Month })

	byType := map[listing.Tag]*Claims{}
	for _, t := range listing.AllTags {
		c := &Claims{Type: t}
		byType[t] = c
	}
	for _, ev := range events {
		c, ok := byType[ev.Type]
		if !ok {
			continue
		}
		c.Count++
		c.Amount = decimal.NewFromFloat(c.Amount).Add(decimal.NewFromFloat(ev.Amount)).Round(2).InexactFloat64()
	}
	for _, t := range listing.AllTags {
		st.Claims = append(st.Claims, *byType[t])
	}
	return st
}

// shares sorts by count descending, then by name.
func shares(counts map[string]int, total int, name func(string) string) []Share {
	out := make([]Share, 0, len(counts))
	for code, n := range counts {
		out = append(out, Share{Code: code, Name: name(code), Count: n, Percent: percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(n)).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).Round(1).InexactFloat64()
}
