// Package domain holds the core types shared across etpflow components.
package domain

// Source identifies which state portal a session fetches permits from.
type Source string

const (
	SourceMP Source = "MP"
	SourceUP Source = "UP"
)

// Record is one fetched permit entry. Identifier is the canonical eMM11
// number, used both as the remote lookup key and the document filename stem.
type Record struct {
	Identifier          string
	DestinationDistrict string
	DestinationAddress  string
	QuantityToTransport string
	GeneratedOn         string
}

// Fields is the set of named values extracted from one permit lookup page.
// Keys match the placeholders of the document template.
type Fields map[string]string

// GeneratedDocument is one persisted document produced by the pipeline.
type GeneratedDocument struct {
	Identifier string
	Path       string
}

// ConversationState is the stage of a per-user input-collection sequence.
type ConversationState int

const (
	// StateSelectSource waits for the operator to pick a permit source.
	StateSelectSource ConversationState = iota
	// StateAwaitStart waits for the range start number.
	StateAwaitStart
	// StateAwaitEnd waits for the range end number.
	StateAwaitEnd
	// StateAwaitDistrict waits for the district filter text.
	StateAwaitDistrict
	// StateDone means input collection finished; follow-up actions only.
	StateDone
)

// String returns the state name for logs.
func (s ConversationState) String() string {
	switch s {
	case StateSelectSource:
		return "select-source"
	case StateAwaitStart:
		return "await-start"
	case StateAwaitEnd:
		return "await-end"
	case StateAwaitDistrict:
		return "await-district"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
