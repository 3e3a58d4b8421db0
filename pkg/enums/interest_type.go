package enums

import "fmt"

// InterestType selects the formula used to convert principal + rate +
// duration into total interest owed.
type InterestType string

const (
	InterestTypeFlat     InterestType = "flat"
	InterestTypeReducing InterestType = "reducing"
	InterestTypeCompound InterestType = "compound"
)

var validInterestTypes = []InterestType{
	InterestTypeFlat,
	InterestTypeReducing,
	InterestTypeCompound,
}

// String implements fmt.Stringer.
func (t InterestType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known InterestType.
func (t InterestType) IsValid() bool {
	for _, candidate := range validInterestTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseInterestType converts raw input into an InterestType.
func ParseInterestType(value string) (InterestType, error) {
	for _, candidate := range validInterestTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid interest type %q", value)
}
