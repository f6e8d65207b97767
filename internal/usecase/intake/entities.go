package intake

type CreateListingInput struct {
	Name       string
	Story      string
	Country    string
	Sector     string
	Amount     float64
	TermMonths int
	APR        float64
	Insurance  []string
}

const (
	MinAmount  = 50
	MaxAmount  = 500
	AmountStep = 10
	MinTerm    = 1
	MaxTerm    = 12
	MinAPR     = 1
)
