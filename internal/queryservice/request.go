package queryservice

import (
	"errors"
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/protweight/internal/interval"
	"github.com/starford/protweight/internal/search"
)

// Tolerance units.
const (
	UnitPPM = "ppm"
	UnitDa  = "Da"
)

// Request is a weight query. Optional fields fall back to Settings.
type Request struct {
	MonoWeight    *float64 `json:"mono_weight"`
	MassTolerance *float64 `json:"mass_tolerance"`
	Unit          string   `json:"unit"`
	K             *int     `json:"k,omitempty"`
	// Timeout is in seconds.
	Timeout      *float64 `json:"timeout,omitempty"`
	Algorithm    string   `json:"algorithm,omitempty"`
	VariantType  string   `json:"variant_type,omitempty"`
	VariantLimit *int     `json:"variant_limit,omitempty"`
}

func finite(value any) error {
	f, ok := value.(*float64)
	if !ok || f == nil {
		return nil
	}
	if math.IsNaN(*f) || math.IsInf(*f, 0) {
		return errors.New("must be a finite number")
	}
	return nil
}

func knownAlgorithm(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := search.Parse(s); err != nil {
		return fmt.Errorf("must be one of %v", search.Strategies())
	}
	return nil
}

// Validate checks the request before any graph is loaded.
func (r *Request) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MonoWeight, validation.Required, validation.By(finite), validation.Min(0.0).Exclusive()),
		validation.Field(&r.MassTolerance, validation.NotNil, validation.By(finite), validation.Min(0.0)),
		validation.Field(&r.Unit, validation.Required, validation.In(UnitPPM, UnitDa)),
		validation.Field(&r.K, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&r.Timeout, validation.NilOrNotEmpty, validation.By(finite), validation.Min(0.0).Exclusive()),
		validation.Field(&r.Algorithm, validation.By(knownAlgorithm)),
		validation.Field(&r.VariantLimit, validation.Min(0)),
	)
}

// TargetInterval converts a weight and tolerance into the closed window of
// acceptable path weights, in graph units (daltons times factor).
func TargetInterval(weight, tolerance float64, unit string, factor float64) (interval.Interval, error) {
	w := factor * weight
	switch unit {
	case UnitDa:
		t := factor * tolerance
		return interval.Interval{Lo: w - t, Hi: w + t}, nil
	case UnitPPM:
		d := w * tolerance / 1e6
		return interval.Interval{Lo: w - d, Hi: w + d}, nil
	}
	return interval.Interval{}, fmt.Errorf("unknown unit %q", unit)
}
