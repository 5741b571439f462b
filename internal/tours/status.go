package tours

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) String() string {
	return string(s)
}

func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}
