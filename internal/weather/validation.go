package weather

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type coordinates struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

type searchQuery struct {
	Query string `validate:"min=2,max=100"`
}

// ValidateCoordinates checks latitude/longitude bounds.
// It returns a KindLocation error naming the offending field.
func ValidateCoordinates(lat, lon float64) error {
	err := validate.Struct(coordinates{Latitude: lat, Longitude: lon})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "Latitude":
			return NewLocationError("latitude must be between -90 and 90")
		case "Longitude":
			return NewLocationError("longitude must be between -180 and 180")
		}
	}
	return NewLocationError("invalid coordinates")
}

// ValidateQuery checks a free-text location query.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return NewLocationError("search query must not be blank")
	}

	err := validate.Struct(searchQuery{Query: query})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "min" {
		return NewLocationError("search query must be at least 2 characters")
	}
	return NewLocationError("search query must be at most 100 characters")
}
