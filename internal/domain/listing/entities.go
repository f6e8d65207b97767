package listing

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound       = errors.New("listing not found")
	ErrInvalidListing = errors.New("invalid listing")
)

type Sector string

const (
	SectorCrop      Sector = "Crop"
	SectorLivestock Sector = "Livestock"
	SectorRetail    Sector = "Retail"
	SectorServices  Sector = "Services"
)

// Sectors is the closed set offered by the marketplace, in display order.
var Sectors = []Sector{SectorCrop, SectorLivestock, SectorRetail, SectorServices}

func (s Sector) Valid() bool { return slices.Contains(Sectors, s) }

// Tag is a parametric insurance cover attached to a listing.
type Tag string

const (
	TagDrought Tag = "drought"
	TagFlood   Tag = "flood"
	TagCyclone Tag = "cyclone"
)

var AllTags = []Tag{TagDrought, TagFlood, TagCyclone}

func (t Tag) Valid() bool {
	switch t {
	case TagDrought, TagFlood, TagCyclone:
		return true
	}
	return false
}

// Countries offered by the marketplace filter.
var Countries = []string{"KE", "UG", "TZ", "BD", "PH", "VN", "KH"}

// Tags is stored as a comma-joined column.
type Tags []Tag

func (ts Tags) Has(t Tag) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

func (ts Tags) Value() (driver.Value, error) {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ","), nil
}

func (ts *Tags) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*ts = Tags{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("listing: cannot scan %T into Tags", src)
	}
	out := Tags{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, Tag(p))
		}
	}
	*ts = out
	return nil
}

// Listing is a borrower's funding request as shown on the marketplace.
type Listing struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"-"`
	ListingID  string    `gorm:"size:32;uniqueIndex:ux_listings_listing_id" json:"id"`
	Name       string    `gorm:"size:120" json:"name"`
	Story      string    `gorm:"size:280" json:"story"`
	Country    string    `gorm:"size:2;index:idx_listings_country" json:"country"`
	Sector     Sector    `gorm:"size:16;index:idx_listings_sector" json:"sector"`
	Amount     float64   `gorm:"type:decimal(18,2)" json:"amount"`
	Funded     float64   `gorm:"type:decimal(18,2)" json:"funded"`
	APR        float64   `gorm:"column:apr;type:decimal(6,2)" json:"apr"`
	TermMonths int       `gorm:"column:term_months" json:"term_months"`
	Insurance  Tags      `gorm:"type:varchar(64)" json:"insurance"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Listing) TableName() string { return "listings" }

type Params struct {
	ListingID  string
	Name       string
	Story      string
	Country    string
	Sector     Sector
	Amount     float64
	Funded     float64
	APR        float64
	TermMonths int
	Insurance  []Tag
	CreatedAt  time.Time
}

const MaxStoryLen = 280

// New validates p and builds a Listing. Duplicate insurance tags are collapsed.
func New(p Params) (*Listing, error) {
	switch {
	case p.ListingID == "":
		return nil, fmt.Errorf("%w: missing id", ErrInvalidListing)
	case strings.TrimSpace(p.Name) == "":
		return nil, fmt.Errorf("%w: missing name", ErrInvalidListing)
	case utf8.RuneCountInString(p.Story) > MaxStoryLen:
		return nil, fmt.Errorf("%w: story longer than %d characters", ErrInvalidListing, MaxStoryLen)
	case len(p.Country) != 2:
		return nil, fmt.Errorf("%w: country %q is not a 2-letter code", ErrInvalidListing, p.Country)
	case !p.Sector.Valid():
		return nil, fmt.Errorf("%w: unknown sector %q", ErrInvalidListing, p.Sector)
	case p.Amount <= 0:
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidListing)
	case p.Funded < 0 || p.Funded > p.Amount:
		return nil, fmt.Errorf("%w: funded %.2f outside [0, %.2f]", ErrInvalidListing, p.Funded, p.Amount)
	case p.APR < 0:
		return nil, fmt.Errorf("%w: apr must be non-negative", ErrInvalidListing)
	case p.TermMonths <= 0:
		return nil, fmt.Errorf("%w: term must be positive", ErrInvalidListing)
	}

	tags := Tags{}
	for _, t := range p.Insurance {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown insurance tag %q", ErrInvalidListing, t)
		}
		if !tags.Has(t) {
			tags = append(tags, t)
		}
	}

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &Listing{
		ListingID:  p.ListingID,
		Name:       strings.TrimSpace(p.Name),
		Story:      p.Story,
		Country:    strings.ToUpper(p.Country),
		Sector:     p.Sector,
		Amount:     p.Amount,
		Funded:     p.Funded,
		APR:        p.APR,
		TermMonths: p.TermMonths,
		Insurance:  tags,
		CreatedAt:  created,
	}, nil
}

// Clone returns a deep copy; snapshots never share a *Listing that is later mutated.
func (l *Listing) Clone() *Listing {
	c := *l
	c.Insurance = append(Tags(nil), l.Insurance...)
	return &c
}

// FundingRatio is funded/amount; a zero amount yields 0.
func (l *Listing) FundingRatio() float64 {
	if l.Amount <= 0 {
		return 0
	}
	return l.Funded / l.Amount
}

func (l *Listing) Remaining() float64 {
	if r := l.Amount - l.Funded; r > 0 {
		return r
	}
	return 0
}

func (l *Listing) FullyFunded() bool { return l.Funded >= l.Amount }

// InsuranceCoverage is a flat 25% of principal per cover.
func (l *Listing) InsuranceCoverage() int { return len(l.Insurance) * 25 }

// MaturityDate counts a month as 30 days.
func (l *Listing) MaturityDate() time.Time {
	return l.CreatedAt.Add(time.Duration(l.TermMonths) * 30 * 24 * time.Hour)
}
