package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput marks caller errors; wrapped errors carry the detail.
var ErrInvalidInput = errors.New("invalid input")

// Physiological bounds accepted for a reading, in mg/dL.
const (
	MinReading = 20
	MaxReading = 600
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("routine", func(fl validator.FieldLevel) bool {
		return RoutineLabel(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 5 {
			return false
		}
		_, err := time.Parse("15:04", s)
		return err == nil
	})
	return v
}

type readingInput struct {
	Value float64      `validate:"gte=20,lte=600"`
	Label RoutineLabel `validate:"routine"`
}

// ValidateReading checks a reading before it is appended to the log.
func ValidateReading(value float64, label RoutineLabel) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value must be a finite number", ErrInvalidInput)
	}
	if err := validate.Struct(readingInput{Value: value, Label: label}); err != nil {
		return describe(err)
	}
	return nil
}

// ValidateReminders checks a full schedule: every entry well formed and ids
// unique. Empty ids are allowed and assigned by the caller.
func ValidateReminders(set []Reminder) error {
	seen := make(map[string]struct{}, len(set))
	for i, r := range set {
		if err := validate.Struct(r); err != nil {
			return fmt.Errorf("reminder %d: %w", i, describe(err))
		}
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate reminder id %q", ErrInvalidInput, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "routine":
			msgs = append(msgs, fmt.Sprintf("unknown label %q", fe.Value()))
		case "clock":
			msgs = append(msgs, fmt.Sprintf("invalid time %q (expected HH:MM)", fe.Value()))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be between %d and %d mg/dL", strings.ToLower(fe.Field()), MinReading, MaxReading))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}
