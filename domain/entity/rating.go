package entity

import "github.com/pkg/errors"

// Rating is a qualitative likelihood or impact judgment on the standard
// five-value scale.
type Rating string

const (
	RatingVeryLow  Rating = "very_low"
	RatingLow      Rating = "low"
	RatingMedium   Rating = "medium"
	RatingHigh     Rating = "high"
	RatingVeryHigh Rating = "very_high"
)

// ratingValues is the fixed qualitative-to-numeric mapping. It is never
// mutated at runtime.
var ratingValues = map[Rating]int{
	RatingVeryLow:  1,
	RatingLow:      2,
	RatingMedium:   3,
	RatingHigh:     4,
	RatingVeryHigh: 5,
}

// Value returns the numeric value (1-5) for the rating.
func (r Rating) Value() (int, error) {
	v, ok := ratingValues[r]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidInput, "unknown rating %q", string(r))
	}
	return v, nil
}

// IsValid reports whether the rating is one of the five recognized values.
func (r Rating) IsValid() bool {
	_, ok := ratingValues[r]
	return ok
}

// RatingFromValue maps a numeric value (1-5) back onto its rating.
func RatingFromValue(v int) (Rating, error) {
	for r, rv := range ratingValues {
		if rv == v {
			return r, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidInput, "rating value %d out of range", v)
}

// RiskLevel is the discrete bucket a risk score falls into.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskLevelDisplayOrder is the fixed order risk levels are presented in,
// most severe first. Report layouts depend on this order being stable.
var RiskLevelDisplayOrder = []RiskLevel{
	RiskLevelCritical,
	RiskLevelHigh,
	RiskLevelMedium,
	RiskLevelLow,
}
