package models

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Price accepts either a JSON number or a currency-prefixed string ("$60",
// "€12.50"). The ambiguity is resolved once, at ingestion, via Normalize;
// everything past validation carries a plain float64.
type Price struct {
	num   float64
	str   string
	isNum bool
	set   bool
}

// NumericPrice builds an already-numeric Price, for callers that re-enter
// the pipeline with normalized values (e.g. the Stripe webhook).
func NumericPrice(v float64) Price {
	return Price{num: v, isNum: true, set: true}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Price{str: s, set: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = Price{num: f, isNum: true, set: true}
		return nil
	}
	return errors.New("price must be a number or a string")
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.isNum {
		return json.Marshal(p.num)
	}
	return json.Marshal(p.str)
}

// Normalize strips a leading currency symbol if the price came in as a
// string and parses it as a decimal. Unparseable or non-positive prices
// are rejected.
func (p Price) Normalize() (float64, error) {
	if !p.set {
		return 0, errors.New("price is required")
	}

	v := p.num
	if !p.isNum {
		s := strings.TrimSpace(p.str)
		for _, sym := range []string{"$", "€", "£"} {
			s = strings.TrimPrefix(s, sym)
		}
		s = strings.TrimSpace(s)

		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.New("price is not a valid number: " + p.str)
		}
		v = parsed
	}

	// ParseFloat accepts "NaN" and "Inf", and neither trips the <= 0 check.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("price is not a valid number")
	}
	if v <= 0 {
		return 0, errors.New("price must be positive")
	}
	return v, nil
}
