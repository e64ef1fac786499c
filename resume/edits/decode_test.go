package edits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/resume/contract"
)

func TestDecodeNormalizesShortKeys(t *testing.T) {
	set, err := Decode([]byte(`{"version":1,"meta":{},"ops":[
		{"op":"replace_line","l":3,"t":"Senior Engineer"},
		{"op":"delete_range","s":5,"e":6},
		{"op":"insert_after","line":2,"l":9,"text":"x"}
	]}`))
	require.NoError(t, err)
	require.Len(t, set.Ops, 3)

	assert.Equal(t, KindReplaceLine, set.Ops[0].Kind)
	assert.Equal(t, 3, set.Ops[0].LineNum())
	assert.Equal(t, "Senior Engineer", set.Ops[0].TextValue())

	assert.Equal(t, 5, set.Ops[1].StartNum())
	assert.Equal(t, 6, set.Ops[1].EndNum())

	assert.Equal(t, 2, set.Ops[2].LineNum(), "long key wins over alias")
}

func TestDecodeKeepsProvenance(t *testing.T) {
	set, err := Decode([]byte(`{"version":1,"ops":[{"op":"replace_line","line":1,"text":"a","why":"keyword","current_snippet":"old"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "keyword", set.Ops[0].Reason)
	assert.Equal(t, "old", set.Ops[0].CurrentSnippet)
	assert.NotNil(t, set.Meta)
}

func TestDecodeRecordsMistypedFields(t *testing.T) {
	set, err := Decode([]byte(`{"version":1,"ops":[{"op":"replace_line","line":"2","text":7}, 5, {"op":7}]}`))
	require.NoError(t, err)
	require.Len(t, set.Ops, 3)

	assert.Nil(t, set.Ops[0].Line)
	assert.True(t, set.Ops[0].Mistyped("line"))
	assert.True(t, set.Ops[0].Mistyped("text"))
	assert.False(t, set.Ops[1].IsObject())
	assert.Equal(t, Kind("7"), set.Ops[2].Kind)
}

func TestDecodeSchemaErrors(t *testing.T) {
	_, err := Decode([]byte(`{"version":2,"ops":[]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.True(t, errors.Is(err, contract.ErrUnsupportedVersion))

	_, err = Decode([]byte(`{"version":1}`))
	var missing contract.MissingFieldsError
	assert.True(t, errors.As(err, &missing))

	_, err = Decode([]byte(`{"version":1,`))
	assert.True(t, errors.Is(err, ErrMalformedJSON))

	_, err = Decode([]byte(`[1,2]`))
	assert.True(t, errors.Is(err, ErrMalformedJSON))
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "think block", in: "<think>\nplanning\n</think>\n{\"a\":1}", want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "think then fence", in: "<think>x</think>```json\n{\"a\":1}\n```", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanResponse(tt.in))
		})
	}
}

func TestEncodeRoundTripsOps(t *testing.T) {
	in := Set{Version: SchemaVersion, Ops: []Op{ReplaceRange(2, 3, "X\nY"), DeleteRange(5, 5)}}
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in.Ops, out.Ops)
}

func TestPlaceholder(t *testing.T) {
	data, err := Encode(Placeholder("gpt-4o-mini"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"meta":{"strategy":"manual","model":"gpt-4o-mini"},"ops":[]}`, string(data))

	failed := FromFailure(Failure{Kind: FailureMalformed, Detail: "bad"}, "m")
	require.NotNil(t, failed.Failure)
	assert.Empty(t, failed.Ops)
}
