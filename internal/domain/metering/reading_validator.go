package metering

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ReadingErrorKind classifies why a proposed meter index was rejected
type ReadingErrorKind string

const (
	// ReadingInvalidNumber means the input could not be parsed as a number
	ReadingInvalidNumber ReadingErrorKind = "INVALID_NUMBER"
	// ReadingNegativeIndex means the index is below zero
	ReadingNegativeIndex ReadingErrorKind = "NEGATIVE_INDEX"
	// ReadingBelowPrevious means the index is lower than the last recorded one
	ReadingBelowPrevious ReadingErrorKind = "BELOW_PREVIOUS"
	// ReadingNoUsage means the index equals the previous one; zero usage is rejected
	ReadingNoUsage ReadingErrorKind = "NO_USAGE"
)

// ReadingValidationError is returned when a proposed index fails validation
type ReadingValidationError struct {
	Kind ReadingErrorKind
}

// Error implements the error interface
func (e *ReadingValidationError) Error() string {
	switch e.Kind {
	case ReadingInvalidNumber:
		return "reading is not a valid number"
	case ReadingNegativeIndex:
		return "reading cannot be negative"
	case ReadingBelowPrevious:
		return "reading is below the previous index"
	case ReadingNoUsage:
		return "reading equals the previous index; zero usage is not allowed"
	}
	return "invalid reading"
}

// ValidateReading checks a proposed meter index against the previous one.
// Rules are applied in order: parseable, non-negative, not below previous,
// strictly greater than previous. On success it returns the parsed index.
// The same rule set backs field-level checks and the pre-completion sweep
// over all meters of a unit.
func ValidateReading(currentText string, previous decimal.Decimal) (decimal.Decimal, error) {
	current, err := decimal.NewFromString(strings.TrimSpace(currentText))
	if err != nil {
		return decimal.Zero, &ReadingValidationError{Kind: ReadingInvalidNumber}
	}
	return ValidateIndex(current, previous)
}

// ValidateIndex applies the ordering rules to an already-parsed index
func ValidateIndex(current, previous decimal.Decimal) (decimal.Decimal, error) {
	if current.IsNegative() {
		return decimal.Zero, &ReadingValidationError{Kind: ReadingNegativeIndex}
	}
	if current.LessThan(previous) {
		return decimal.Zero, &ReadingValidationError{Kind: ReadingBelowPrevious}
	}
	if current.Equal(previous) {
		return decimal.Zero, &ReadingValidationError{Kind: ReadingNoUsage}
	}
	return current, nil
}
