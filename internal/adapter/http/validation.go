package http

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"seedflow-backend/internal/domain/listing"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// listing ids and wallet addresses
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return reHex32.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("sector", func(fl validator.FieldLevel) bool {
		return listing.Sector(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("insurance", func(fl validator.FieldLevel) bool {
		return listing.Tag(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		c := strings.ToUpper(fl.Field().String())
		for _, k := range listing.Countries {
			if k == c {
				return true
			}
		}
		return false
	})
	// whole multiples of 10
	_ = v.RegisterValidation("step10", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.Abs(f-math.Round(f/10)*10) < 1e-9
	})
	// max 2 decimal places
	_ = v.RegisterValidation("dec2", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.Abs(f-(math.Round(f*100)/100)) < 1e-9
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "hex32":
			out = append(out, FieldError{Field: field, Message: "must be 32-char lowercase hex"})
		case "sector":
			out = append(out, FieldError{Field: field, Message: "must be one of Crop, Livestock, Retail, Services"})
		case "insurance":
			out = append(out, FieldError{Field: field, Message: "must be one of drought, flood, cyclone"})
		case "country":
			out = append(out, FieldError{Field: field, Message: "must be one of " + strings.Join(listing.Countries, ", ")})
		case "step10":
			out = append(out, FieldError{Field: field, Message: "must be a multiple of 10"})
		case "dec2":
			out = append(out, FieldError{Field: field, Message: "must have at most 2 decimal places"})
		case "oneof":
			out = append(out, FieldError{Field: field, Message: "must be one of " + e.Param()})
		case "gte", "min":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte", "max":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
