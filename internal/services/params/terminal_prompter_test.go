package params

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalPrompterCollect(t *testing.T) {
	var out bytes.Buffer
	prompter := NewTerminalPrompter(strings.NewReader("abc\n12\n7\n"), &out)

	v, err := NewCollector(prompter, nil).Collect(context.Background(), "Apply Blur", 2, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter a value between 2 and 10"))
}

func TestTerminalPrompterBlankUsesDefault(t *testing.T) {
	prompter := NewTerminalPrompter(strings.NewReader("\n"), &bytes.Buffer{})
	v, err := NewCollector(prompter, nil).Collect(context.Background(), "Adjust Brightness", -100, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestTerminalPrompterCancel(t *testing.T) {
	for _, input := range []string{"q\n", ""} {
		prompter := NewTerminalPrompter(strings.NewReader(input), &bytes.Buffer{})
		_, err := NewCollector(prompter, nil).Collect(context.Background(), "Apply Blur", 2, 10, 2)
		assert.ErrorIs(t, err, ErrCancelled)
	}
}

func TestTerminalPrompterLastLineWithoutNewline(t *testing.T) {
	prompter := NewTerminalPrompter(strings.NewReader("9"), &bytes.Buffer{})
	v, err := NewCollector(prompter, nil).Collect(context.Background(), "Apply Blur", 2, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}
