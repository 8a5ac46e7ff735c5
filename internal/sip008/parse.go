package sip008

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Variant selects the schema applied when parsing a document.
type Variant string

const (
	// VariantOnline is a remotely fetched document; the version field is
	// mandatory.
	VariantOnline Variant = "online"
	// VariantLocal is a document read from the local filesystem; the
	// version field may be omitted.
	VariantLocal Variant = "local"
)

// Parse decodes text into a Document and validates it against the schema
// for the given variant.
func Parse(text string, variant Variant) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}

	if err := doc.validate(variant); err != nil {
		return nil, err
	}

	return &doc, nil
}

func (d *Document) validate(variant Variant) error {
	versionRules := []validation.Rule{validation.In(SupportedVersion)}
	if variant == VariantOnline {
		versionRules = append([]validation.Rule{validation.Required}, versionRules...)
	}

	return validation.ValidateStruct(d,
		validation.Field(&d.Version, versionRules...),
	)
}
