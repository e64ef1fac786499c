package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EditSetVersion is the single supported edit set schema version.
const EditSetVersion = 1

var (
	// ErrUnsupportedVersion indicates an edit set declares a version other than EditSetVersion.
	ErrUnsupportedVersion = errors.New("unsupported edit set version")

	// ErrInvalidField indicates a required top-level field has the wrong shape.
	ErrInvalidField = errors.New("invalid edit set field")
)

// MissingFieldsError lists the required top-level fields absent from an edit set, in check order.
type MissingFieldsError struct {
	Fields []string
}

func (e MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// EnforceEditSet checks the top-level shape of a decoded edit set document.
// A missing meta object is filled with an empty one; version and ops are required.
func EnforceEditSet(doc map[string]any) error {
	missing := collectMissing(doc)
	if len(missing) > 0 {
		return MissingFieldsError{Fields: missing}
	}

	if err := checkVersion(doc["version"]); err != nil {
		return err
	}
	if _, ok := doc["ops"].([]any); !ok {
		return fmt.Errorf("%w: 'ops' field must be a list", ErrInvalidField)
	}

	applyPlaceholders(doc)
	return nil
}

func collectMissing(doc map[string]any) []string {
	missing := make([]string, 0, 2)
	if _, ok := doc["version"]; !ok {
		missing = append(missing, "version")
	}
	if _, ok := doc["ops"]; !ok {
		missing = append(missing, "ops")
	}
	return missing
}

func checkVersion(v any) error {
	switch n := v.(type) {
	case json.Number:
		if got, err := n.Int64(); err == nil && got == EditSetVersion {
			return nil
		}
	case float64:
		if n == EditSetVersion {
			return nil
		}
	case int:
		if n == EditSetVersion {
			return nil
		}
	}
	return fmt.Errorf("%w: %v (expected %d)", ErrUnsupportedVersion, v, EditSetVersion)
}

func applyPlaceholders(doc map[string]any) {
	if meta, ok := doc["meta"].(map[string]any); !ok || meta == nil {
		doc["meta"] = map[string]any{}
	}
}
