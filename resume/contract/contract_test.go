package contract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforceEditSetAcceptsVersionOne(t *testing.T) {
	doc := map[string]any{"version": json.Number("1"), "ops": []any{}}
	require.NoError(t, EnforceEditSet(doc))
	assert.Equal(t, map[string]any{}, doc["meta"])
}

func TestEnforceEditSetRejectsOtherVersions(t *testing.T) {
	for _, v := range []any{json.Number("2"), json.Number("1.5"), "1", nil} {
		err := EnforceEditSet(map[string]any{"version": v, "ops": []any{}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedVersion), "version %v", v)
	}
}

func TestEnforceEditSetReportsMissingFields(t *testing.T) {
	err := EnforceEditSet(map[string]any{})
	var missing MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"version", "ops"}, missing.Fields)
	assert.Equal(t, "missing required fields: version, ops", err.Error())
}

func TestEnforceEditSetRequiresOpsList(t *testing.T) {
	err := EnforceEditSet(map[string]any{"version": json.Number("1"), "ops": "nope"})
	assert.True(t, errors.Is(err, ErrInvalidField))
}
