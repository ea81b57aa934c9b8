package models

const (
	ActionOpenPosition  = "open_position"
	ActionAddSize       = "add_size"
	ActionPartialClose  = "partial_close"
	ActionClosePosition = "close_position"
)

// ChainEntry is one labeled step of a reconstructed trade.
type ChainEntry struct {
	ExecutionID int64    `json:"execution_id"`
	Action      string   `json:"action"`
	Quantity    float64  `json:"quantity"`
	Timestamp   string   `json:"timestamp"`
	Price       *float64 `json:"price,omitempty"`
}

// ActionChain is the ordered reconstruction of the executions that built
// and closed a position, keyed by 1-based string index ("1", "2", ...).
// It is a derived view, never persisted.
type ActionChain map[string]ChainEntry
