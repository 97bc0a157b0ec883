package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/llm"
)

// apiError simulates an SDK error carrying an HTTP status code.
type apiError struct {
	code int
}

func (e *apiError) Error() string   { return fmt.Sprintf("http %d", e.code) }
func (e *apiError) StatusCode() int { return e.code }

func TestIsTransientCategorized(t *testing.T) {
	parse := &stride.ParseError{Phase: stride.PhasePerceiving, Err: errors.New("bad")}
	assert.True(t, IsTransient(parse))

	unavailable := &llm.UnavailableError{Provider: "test", Err: errors.New("503")}
	assert.True(t, IsTransient(unavailable))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", unavailable)))
}

func TestIsTransientStatusCodes(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransient(&apiError{code: tt.code}), "status %d", tt.code)
	}
}

func TestIsTransientNetworkErrors(t *testing.T) {
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(syscall.ECONNREFUSED))
	assert.True(t, IsTransient(&net.DNSError{IsTemporary: true}))
	assert.False(t, IsTransient(&net.DNSError{IsNotFound: true}))
}

func TestIsTransientMessagePatterns(t *testing.T) {
	assert.True(t, IsTransient(errors.New("upstream rate limit exceeded")))
	assert.False(t, IsTransient(errors.New("invalid credentials")))
	assert.False(t, IsTransient(nil))
}
