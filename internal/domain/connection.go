package domain

// ConnectionState is the two-valued reachability state reported by the
// connectivity monitor.
type ConnectionState int

const (
	Unavailable ConnectionState = iota
	Available
)

func (s ConnectionState) String() string {
	if s == Available {
		return "available"
	}
	return "unavailable"
}

// MarshalText lets the state appear as a string in JSON bodies and log lines.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
