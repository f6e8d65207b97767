package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"seedflow-backend/internal/domain/credit"
	"seedflow-backend/internal/domain/listing"
	"seedflow-backend/internal/marketplace"
	"seedflow-backend/internal/usecase/intake"
)

type ListingHandler struct {
	view   *marketplace.View
	store  *marketplace.Store
	intake *intake.Usecase
	now    func() time.Time
}

func NewListingHandler(store *marketplace.Store, view *marketplace.View, uc *intake.Usecase) *ListingHandler {
	return &ListingHandler{view: view, store: store, intake: uc, now: func() time.Time { return time.Now().UTC() }}
}

type listingItem struct {
	*listing.Listing
	FundingRatio      float64   `json:"funding_ratio"`
	Remaining         float64   `json:"remaining"`
	FullyFunded       bool      `json:"fully_funded"`
	InsuranceCoverage int       `json:"insurance_coverage"`
	MaturityDate      time.Time `json:"maturity_date"`
}

type listingDetail struct {
	listingItem
	Schedule []listing.Installment `json:"schedule"`
}

type listingsResp struct {
	Loading      bool          `json:"loading"`
	Placeholders int           `json:"placeholders"`
	Version      uint64        `json:"version"`
	Total        int           `json:"total"`
	Items        []listingItem `json:"items"`
	Empty        bool          `json:"empty"`
	ClearFilters bool          `json:"clear_filters"`
}

func toItem(l *listing.Listing) listingItem {
	return listingItem{
		Listing:           l,
		FundingRatio:      l.FundingRatio(),
		Remaining:         l.Remaining(),
		FullyFunded:       l.FullyFunded(),
		InsuranceCoverage: l.InsuranceCoverage(),
		MaturityDate:      l.MaturityDate(),
	}
}

// List serves the filtered, sorted marketplace. While the store is loading it
// answers 200 with loading=true and placeholder count.
func (h *ListingHandler) List(c echo.Context) error {
	q := c.QueryParams()
	sk, err := marketplace.ParseSortKey(q.Get("sort"))
	if err != nil {
		return writeError(c, err)
	}
	crit := marketplace.Criteria{Search: q.Get("q"), Sort: sk}
	crit.Countries = splitQuery(q["country"])
	for _, s := range splitQuery(q["sector"]) {
		crit.Sectors = append(crit.Sectors, listing.Sector(s))
	}
	for _, t := range splitQuery(q["insurance"]) {
		crit.Insurance = append(crit.Insurance, listing.Tag(t))
	}

	res := h.view.Query(crit)
	out := listingsResp{
		Loading:      res.Loading,
		Placeholders: res.Placeholders,
		Version:      res.Version,
		Total:        len(res.Items),
		Items:        make([]listingItem, 0, len(res.Items)),
		Empty:        res.Empty(),
	}
	out.ClearFilters = out.Empty && !crit.IsDefault()
	for _, l := range res.Items {
		out.Items = append(out.Items, toItem(l))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.store.Get(c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, listingDetail{listingItem: toItem(l), Schedule: l.Schedule(h.now())})
}

type createListingReq struct {
	Name       string   `json:"name"        validate:"required,max=120"`
	Story      string   `json:"story"       validate:"max=280"`
	Country    string   `json:"country"     validate:"required,country"`
	Sector     string   `json:"sector"      validate:"required,sector"`
	Amount     float64  `json:"amount"      validate:"required,gte=50,lte=500,step10"`
	TermMonths int      `json:"term_months" validate:"required,gte=1,lte=12"`
	APR        float64  `json:"apr"         validate:"required,gte=1,dec2"`
	Insurance  []string `json:"insurance"   validate:"omitempty,dive,insurance"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	var req createListingReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	l, err := h.intake.Create(c.Request().Context(), intake.CreateListingInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toItem(l))
}

type suggestionResp struct {
	credit.Score
	MinAPR float64 `json:"min_apr"`
}

// Suggest returns the credit grade and APR ceiling for ?name=.
func (h *ListingHandler) Suggest(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing name query param"})
	}
	s, err := h.intake.Suggest(c.Request().Context(), name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, suggestionResp{Score: s, MinAPR: intake.MinAPR})
}
