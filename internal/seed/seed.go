// Package seed holds the bundled marketplace listings.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"seedflow-backend/internal/domain/listing"
)

//go:embed listings.yaml
var listingsYAML []byte

type file struct {
	Listings []entry `yaml:"listings"`
}

type entry struct {
	ID         string        `yaml:"id"`
	Name       string        `yaml:"name"`
	Story      string        `yaml:"story"`
	Country    string        `yaml:"country"`
	Sector     string        `yaml:"sector"`
	Amount     float64       `yaml:"amount"`
	Funded     float64       `yaml:"funded"`
	APR        float64       `yaml:"apr"`
	TermMonths int           `yaml:"term_months"`
	Insurance  []string      `yaml:"insurance"`
	CreatedAgo time.Duration `yaml:"created_ago"`
}

// Listings parses the bundled seed relative to now.
func Listings(now time.Time) ([]*listing.Listing, error) {
	return Parse(listingsYAML, now)
}

func Parse(raw []byte, now time.Time) ([]*listing.Listing, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make([]*listing.Listing, 0, len(f.Listings))
	for i, e := range f.Listings {
		tags := make([]listing.Tag, 0, len(e.Insurance))
		for _, t := range e.Insurance {
			tags = append(tags, listing.Tag(t))
		}
		l, err := listing.New(listing.Params{
			ListingID:  e.ID,
			Name:       e.Name,
			Story:      e.Story,
			Country:    e.Country,
			Sector:     listing.Sector(e.Sector),
			Amount:     e.Amount,
			Funded:     e.Funded,
			APR:        e.APR,
			TermMonths: e.TermMonths,
			Insurance:  tags,
			CreatedAt:  now.Add(-e.CreatedAgo),
		})
		if err != nil {
			return nil, fmt.Errorf("seed listing %d (%s): %w", i, e.Name, err)
		}
		out = append(out, l)
	}
	return out, nil
}
