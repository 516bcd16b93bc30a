// Package workdir manages the process-wide output directory for
// generated documents.
package workdir

import (
	"fmt"
	"os"
)

// Policy describes how the output directory is prepared at startup.
// With Clear set, any prior contents are removed; generated documents do
// not survive a restart.
type Policy struct {
	Dir   string
	Clear bool
}

// Prepare applies the policy: the directory exists and, if requested,
// is empty afterwards.
func (p Policy) Prepare() error {
	if p.Dir == "" {
		return fmt.Errorf("output directory not configured")
	}

	if p.Clear {
		if err := os.RemoveAll(p.Dir); err != nil {
			return fmt.Errorf("clear output dir: %w", err)
		}
	}

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	return nil
}
