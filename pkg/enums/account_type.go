package enums

import "fmt"

// AccountType distinguishes a member's savings account from the drawdown
// account that receives loan disbursements.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeDrawdown AccountType = "drawdown"
)

var validAccountTypes = []AccountType{
	AccountTypeSavings,
	AccountTypeDrawdown,
}

// String implements fmt.Stringer.
func (t AccountType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AccountType.
func (t AccountType) IsValid() bool {
	for _, candidate := range validAccountTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAccountType converts raw input into an AccountType.
func ParseAccountType(value string) (AccountType, error) {
	for _, candidate := range validAccountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account type %q", value)
}
