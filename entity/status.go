package entity

// MembershipStatus is the normalized result of a channel membership check.
// The Telegram API reports it as a free-form string; handlers must never
// compare those strings directly, only this enum.
type MembershipStatus int

const (
	StatusUnknown MembershipStatus = iota
	StatusCreator
	StatusAdministrator
	StatusMember
	StatusRestricted
	StatusLeft
	StatusKicked
)

var statusNames = map[MembershipStatus]string{
	StatusUnknown:       "unknown",
	StatusCreator:       "creator",
	StatusAdministrator: "administrator",
	StatusMember:        "member",
	StatusRestricted:    "restricted",
	StatusLeft:          "left",
	StatusKicked:        "kicked",
}

func (s MembershipStatus) String() string {
	name, ok := statusNames[s]
	if !ok {
		return "unknown"
	}
	return name
}

// IsVerified reports whether the status counts as channel membership.
// Only a current member, administrator or creator qualifies; restricted,
// left, kicked and unknown do not.
func (s MembershipStatus) IsVerified() bool {
	switch s {
	case StatusCreator, StatusAdministrator, StatusMember:
		return true
	}
	return false
}

// ParseMembershipStatus maps a Telegram chat member status string to the
// enum. Unrecognized values map to StatusUnknown, which is not verified.
func ParseMembershipStatus(status string) MembershipStatus {
	switch status {
	case "creator":
		return StatusCreator
	case "administrator":
		return StatusAdministrator
	case "member":
		return StatusMember
	case "restricted":
		return StatusRestricted
	case "left":
		return StatusLeft
	case "kicked":
		return StatusKicked
	}
	return StatusUnknown
}
