package location

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var citiesYAML []byte

// BuiltinCities returns the embedded popular-city list.
func BuiltinCities() ([]Location, error) {
	return ParseCities(citiesYAML)
}

// ParseCities decodes a YAML city list.
func ParseCities(data []byte) ([]Location, error) {
	var cities []Location
	if err := yaml.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("parse city list: %w", err)
	}
	return cities, nil
}
