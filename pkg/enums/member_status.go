package enums

import "fmt"

// MemberStatus tracks a member's standing with the institution.
type MemberStatus string

const (
	MemberStatusPending MemberStatus = "pending"
	MemberStatusActive  MemberStatus = "active"
	MemberStatusBlocked MemberStatus = "blocked"
)

var validMemberStatuses = []MemberStatus{
	MemberStatusPending,
	MemberStatusActive,
	MemberStatusBlocked,
}

// String implements fmt.Stringer.
func (s MemberStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MemberStatus.
func (s MemberStatus) IsValid() bool {
	for _, candidate := range validMemberStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMemberStatus converts raw input into a MemberStatus.
func ParseMemberStatus(value string) (MemberStatus, error) {
	for _, candidate := range validMemberStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member status %q", value)
}
