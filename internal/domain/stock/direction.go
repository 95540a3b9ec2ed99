package stock

// Direction is the polarity of a movement's contribution to a stock
// balance.
type Direction int

const (
	// Inbound increases the balance
	Inbound Direction = 1
	// Outbound decreases the balance
	Outbound Direction = -1
)

// Sign returns the signed multiplier for balance arithmetic.
func (d Direction) Sign() int64 { return int64(d) }

// Label returns the movement type label used in reports.
func (d Direction) Label() string {
	if d == Outbound {
		return "Outbound"
	}
	return "Inbound"
}
