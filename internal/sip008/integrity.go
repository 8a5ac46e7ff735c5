package sip008

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CheckIntegrity validates the document's internal consistency: entry
// identifiers must be unique and address fields must be sane. A document
// that fails this check must not reach the pool.
func (d *Document) CheckIntegrity() error {
	seen := make(map[string]struct{}, len(d.Servers))

	for i, entry := range d.Servers {
		if entry.ID != "" {
			if _, dup := seen[entry.ID]; dup {
				return fmt.Errorf("duplicated server identifier %q", entry.ID)
			}
			seen[entry.ID] = struct{}{}
		}

		if err := entry.validate(); err != nil {
			return fmt.Errorf("server entry %d: %w", i, err)
		}
	}

	return nil
}

func (e ServerEntry) validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ServerPort, validation.Min(0), validation.Max(65535)),
		validation.Field(&e.Weight, validation.Min(0)),
	)
}
