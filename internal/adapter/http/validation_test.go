package http

import (
	"errors"
	"strings"
	"testing"
)

func TestHex32Validation(t *testing.T) {
	type P struct {
		WalletID string `validate:"hex32"`
	}
	cv := NewValidator()

	// valid: 32-char lowercase hex
	ok := P{WalletID: strings.Repeat("a", 32)}
	if err := cv.Validate(ok); err != nil {
		t.Fatalf("expected valid hex32, got err: %v", err)
	}

	// invalid samples
	for _, s := range []string{
		"",                                  // empty
		strings.Repeat("A", 32),             // uppercase
		"deadbeef",                          // too short
		strings.Repeat("g", 32),             // non-hex char
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",   // 31 chars
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88x", // 33 with extra
	} {
		bad := P{WalletID: s}
		err := cv.Validate(bad)
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		fe := ToFieldErrors(err)
		found := false
		for _, e := range fe {
			if e.Field == "WalletID" && strings.Contains(e.Message, "32-char lowercase hex") {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected hex32 message for %q, got: %+v", s, fe)
		}
	}
}

func TestStep10Validation(t *testing.T) {
	type P struct {
		Amount float64 `validate:"step10"`
	}
	cv := NewValidator()

	for _, v := range []float64{0, 50, 120, 500} {
		if err := cv.Validate(P{Amount: v}); err != nil {
			t.Fatalf("expected step10 OK for %v, got %v", v, err)
		}
	}
	for _, v := range []float64{55, 99.99, 10.5} {
		err := cv.Validate(P{Amount: v})
		if err == nil {
			t.Fatalf("expected step10 error for %v", v)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "Amount", "multiple of 10") {
			t.Fatalf("expected 'multiple of 10' for %v, got %+v", v, fe)
		}
	}
}

func TestClosedSetValidation(t *testing.T) {
	type P struct {
		Country   string   `validate:"country"`
		Sector    string   `validate:"sector"`
		Insurance []string `validate:"dive,insurance"`
	}
	cv := NewValidator()

	if err := cv.Validate(P{Country: "ke", Sector: "Crop", Insurance: []string{"drought", "cyclone"}}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := cv.Validate(P{Country: "US", Sector: "Mining", Insurance: []string{"flood", "hail"}})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)
	if !containsFieldMsg(fe, "Country", "KE, UG") {
		t.Fatalf("missing country message: %+v", fe)
	}
	if !containsFieldMsg(fe, "Sector", "Crop, Livestock") {
		t.Fatalf("missing sector message: %+v", fe)
	}
	if !containsFieldMsg(fe, "Insurance[1]", "drought, flood, cyclone") {
		t.Fatalf("missing insurance message: %+v", fe)
	}
}

func TestDec2Validation(t *testing.T) {
	type P struct {
		APR float64 `validate:"dec2"`
	}
	cv := NewValidator()

	for _, v := range []float64{1.29, 2.00, 0.9, 1.2} {
		if err := cv.Validate(P{APR: v}); err != nil {
			t.Fatalf("expected dec2 OK for %v, got %v", v, err)
		}
	}
	for _, v := range []float64{1.234, 2.9999} {
		err := cv.Validate(P{APR: v})
		if err == nil {
			t.Fatalf("expected dec2 error for %v", v)
		}
		fe := ToFieldErrors(err)
		if !containsFieldMsg(fe, "APR", "at most 2 decimal places") {
			t.Fatalf("expected 'at most 2 decimal places' for %v, got %+v", v, fe)
		}
	}
}

func TestRequiredAndBoundsMapping(t *testing.T) {
	type P struct {
		Name string  `validate:"required"`
		Min  int     `validate:"gte=10"`
		Max  int     `validate:"lte=5"`
		APR  float64 `validate:"dec2,gte=1,lte=18"`
	}
	cv := NewValidator()

	// Intentionally violate all
	err := cv.Validate(P{
		Name: "",     // required
		Min:  9,      // gte=10
		Max:  6,      // lte=5
		APR:  12.333, // dec2 + lte fail, but dec2 will trigger first
	})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)

	// required
	if !containsFieldMsg(fe, "Name", "is required") {
		t.Fatalf("missing 'is required' for Name: %+v", fe)
	}
	// gte
	if !containsFieldMsg(fe, "Min", "greater than or equal to 10") {
		t.Fatalf("missing gte message for Min: %+v", fe)
	}
	// lte
	if !containsFieldMsg(fe, "Max", "less than or equal to 5") {
		t.Fatalf("missing lte message for Max: %+v", fe)
	}
	// dec2 mapping should show for APR
	if !containsFieldMsg(fe, "APR", "at most 2 decimal places") {
		t.Fatalf("missing dec2 message for APR: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	err := errors.New("boom")
	fe := ToFieldErrors(err)
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}
