package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"registry error", "S101", "Initial state override has the wrong type", CategoryRegistry},
		{"config error", "S201", "Configuration file not found", CategoryConfig},
		{"snapshot error", "S301", "Snapshot not found", CategorySnapshot},
		{"unknown error code", "S999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestErrorIsByCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", New("S301").WithDetail("snapshot demo"))
	assert.True(t, stderrors.Is(err, New("S301")))
	assert.False(t, stderrors.Is(err, New("S302")))
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := New("S302").Wrap(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	var se *Error
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &se)
	assert.Equal(t, "S302", se.Code)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, "S302"))

	orig := New("S303")
	assert.Same(t, orig, FromError(orig, "S302"))

	wrapped := FromError(stderrors.New("boom"), "S302")
	assert.Equal(t, "S302", wrapped.Code)
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("S201").
		WithDetail("no sweetstate.json found in ./app").
		WithSuggestion("Create sweetstate.json")

	out := err.Format()
	assert.Contains(t, out, "ERROR S201: Configuration file not found")
	assert.Contains(t, out, "no sweetstate.json found in ./app")
	assert.Contains(t, out, "Hint: Create sweetstate.json")
	assert.NotContains(t, out, "\033[")
}

func TestFormatJSON(t *testing.T) {
	err := New("S302").Wrap(stderrors.New("timeout"))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(err.FormatJSON()), &decoded))
	assert.Equal(t, "S302", decoded["code"])
	assert.Equal(t, "snapshot", decoded["category"])
	assert.Equal(t, "timeout", decoded["cause"])
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "S304: Unknown snapshot backend", New("S304").WithDetail("ignored").FormatCompact())
	assert.Equal(t, "plain", (&Error{Message: "plain"}).FormatCompact())
}

func TestFprintColors(t *testing.T) {
	defer EnableColors()

	var colored, plain strings.Builder
	EnableColors()
	Fprint(&colored, New("S301"))
	DisableColors()
	Fprint(&plain, New("S301"))

	assert.Contains(t, colored.String(), "\033[")
	assert.NotContains(t, plain.String(), "\033[")
	assert.Contains(t, plain.String(), "ERROR S301: Snapshot not found")
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 40), 20)
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 20)
	}
	assert.Nil(t, wrapText("", 10))
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	require.NotEmpty(t, codes)
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
	}
	_, ok := GetTemplate("S101")
	assert.True(t, ok)
}

func TestHasCode(t *testing.T) {
	inner := New("S302")
	outer := fmt.Errorf("saving: %w", New("S303").Wrap(inner))

	assert.True(t, HasCode(outer, "S303"))
	assert.True(t, HasCode(outer, "S302"))
	assert.False(t, HasCode(outer, "S301"))
	assert.False(t, HasCode(nil, "S301"))
	assert.False(t, HasCode(io.EOF, "S301"))
}
