package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput marks a request rejected before any data is fetched.
var ErrInvalidInput = errors.New("invalid input")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// AnalysisRequest describes one report run.
type AnalysisRequest struct {
	Symbols  []string  `json:"symbols" validate:"required,min=1,dive,required"`
	Start    time.Time `json:"start" validate:"required"`
	End      time.Time `json:"end" validate:"required,gtfield=Start"`
	Interval Interval  `json:"interval" validate:"required,oneof=1d 1wk 1mo"`
	Periods  []int     `json:"periods" validate:"required,min=1,dive,gt=0"`
}

// Normalize returns a copy with symbols trimmed, upper-cased and de-duplicated
// (first occurrence wins) and duplicate periods removed.
func (r AnalysisRequest) Normalize() AnalysisRequest {
	out := r
	out.Symbols = make([]string, 0, len(r.Symbols))
	seen := make(map[string]bool, len(r.Symbols))
	for _, s := range r.Symbols {
		s = NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out.Symbols = append(out.Symbols, s)
	}
	out.Periods = make([]int, 0, len(r.Periods))
	seenP := make(map[int]bool, len(r.Periods))
	for _, p := range r.Periods {
		if seenP[p] {
			continue
		}
		seenP[p] = true
		out.Periods = append(out.Periods, p)
	}
	return out
}

// Validate checks the request and wraps every failure in ErrInvalidInput.
func (r AnalysisRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must not be empty"
	case "gtfield":
		return fe.Field() + " must be after start"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gt":
		return fe.Field() + " must be positive"
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

// MaxPeriod returns the largest requested period, or 0 when there are none.
func (r AnalysisRequest) MaxPeriod() int {
	longest := 0
	for _, p := range r.Periods {
		if p > longest {
			longest = p
		}
	}
	return longest
}
