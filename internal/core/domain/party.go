package domain

// Party is one of the two key holders of a wallet.
type Party int

const (
	// PartyUser holds the user key.
	PartyUser Party = iota + 1
	// PartyService holds the cosigning key.
	PartyService
)

func (p Party) String() string {
	switch p {
	case PartyUser:
		return "user"
	case PartyService:
		return "service"
	default:
		return "unknown"
	}
}

// IsValid ...
func (p Party) IsValid() bool {
	return p == PartyUser || p == PartyService
}

// ParseParty ...
func ParseParty(s string) (Party, error) {
	switch s {
	case "user":
		return PartyUser, nil
	case "service":
		return PartyService, nil
	default:
		return 0, ErrUnknownParty
	}
}
