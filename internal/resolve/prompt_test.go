package resolve

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompterChooseRepromptsOnInvalidInput(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("x\nR\n"), &out)

	choice, err := p.Choose(context.Background(), []string{"Op 1: missing 'op' field"})
	require.NoError(t, err)
	assert.Equal(t, ChoiceRetry, choice)
	assert.Contains(t, out.String(), "   Op 1: missing 'op' field")
	assert.Contains(t, out.String(), "Invalid choice.")
}

func TestPrompterChooseAllAnswers(t *testing.T) {
	cases := map[string]Choice{
		"s": ChoiceFailSoft, "hard": ChoiceFailHard, "m": ChoiceManual, "retry": ChoiceRetry, "a": ChoiceAccept,
	}
	for answer, want := range cases {
		p := NewPrompter(strings.NewReader(answer), io.Discard)
		got, err := p.Choose(context.Background(), nil)
		require.NoError(t, err, answer)
		assert.Equal(t, want, got, answer)
	}
}

func TestPrompterChooseEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), io.Discard)
	_, err := p.Choose(context.Background(), nil)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrompterAwaitRepair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"ops":[{"op":"delete_range","s":2,"e":3}]}`), 0o644))

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n"), &out)
	set, err := p.AwaitRepair(context.Background(), NewFileStore(path), []string{"Op 1: invalid range 3-2"})
	require.NoError(t, err)
	require.Len(t, set.Ops, 1)
	assert.Equal(t, 2, set.Ops[0].StartNum())
	assert.Contains(t, out.String(), "Please edit "+path+" manually")
	assert.Contains(t, out.String(), "File edited, re-validating...")
}

func TestPrompterAwaitRepairKeepsWaitingOnBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"ops":[`), 0o644))

	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n"), &out)
	_, err := p.AwaitRepair(context.Background(), NewFileStore(path), nil)
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, out.String(), "Could not load")
}
