// ABOUTME: Tests for the SSE decoder used by streaming backends
// ABOUTME: Covers multi-line data, comments, CRLF endings, and unterminated bodies

package provider

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEDecoder_Events(t *testing.T) {
	body := ": keepalive\n" +
		"event: message\n" +
		"data: {\"a\":1}\n\n" +
		"data: line1\r\n" +
		"data: line2\r\n\r\n" +
		"data: [DONE]\n\n"

	dec := newSSEDecoder(strings.NewReader(body))

	got, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	got, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", string(got))

	got, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "[DONE]", string(got))

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEDecoder_UnterminatedFinalEvent(t *testing.T) {
	dec := newSSEDecoder(strings.NewReader("data: tail"))

	got, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "tail", string(got))

	_, err = dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEDecoder_EmptyBody(t *testing.T) {
	_, err := newSSEDecoder(strings.NewReader("")).Next()
	assert.ErrorIs(t, err, io.EOF)
}
