package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: []string{}},
		{name: "single", in: "A", want: []string{"A"}},
		{name: "trailing newline", in: "A\nB\n", want: []string{"A", "B"}},
		{name: "crlf", in: "A\r\nB", want: []string{"A", "B"}},
		{name: "blank lines kept", in: "A\n\nB", want: []string{"A", "", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromText(tt.in).Lines())
		})
	}
}

func TestFromMapRequiresContiguousKeys(t *testing.T) {
	b, err := FromMap(map[int]string{1: "A", 2: "B", 3: "C"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, b.Lines())

	_, err = FromMap(map[int]string{1: "A", 3: "C"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotContiguous))

	_, err = FromMap(map[int]string{0: "A"})
	assert.True(t, errors.Is(err, ErrNotContiguous))
}

func TestBufferAccessors(t *testing.T) {
	b := NewBuffer([]string{"A", "B"})
	assert.Equal(t, 2, b.Len())
	assert.True(t, b.Has(1))
	assert.False(t, b.Has(0))
	assert.False(t, b.Has(3))

	text, ok := b.Line(2)
	assert.True(t, ok)
	assert.Equal(t, "B", text)

	m := b.Map()
	m[1] = "changed"
	first, _ := b.Line(1)
	assert.Equal(t, "A", first, "Map must return a copy")
}

func TestNumbered(t *testing.T) {
	b := NewBuffer([]string{"Jane Doe", "Engineer"})
	assert.Equal(t, "   1 Jane Doe\n   2 Engineer", b.Numbered())
}
