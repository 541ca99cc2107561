package types

// Event represents a typed event emitted during a state transition, e.g. a
// reservation being created or a deposit being refunded.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// AttrPlatformFee is the attribute carrying the platform revenue a state
// transition credited, in base units of the event's denom. Only fee-bearing
// events set it.
const AttrPlatformFee = "platformFee"
