package domain

import "context"

// Fetcher lists permit records for a serial range and district filter,
// streaming each discovered record through onRecord in discovery order.
type Fetcher interface {
	Fetch(ctx context.Context, start, end int, district string, onRecord func(Record) error) error
}

// Advancer authenticates against the issuing portal and advances the given
// records so their identifiers become eligible for document lookup. Progress
// is reported as human-readable lines through onLog.
type Advancer interface {
	Advance(ctx context.Context, records []Record, onLog func(string)) error
}
