package errorutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Retriable("temporary")))
	assert.False(t, IsRetryable(NonRetriable("permanent")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))

	// %w 包装链中也能识别
	wrapped := fmt.Errorf("outer: %w", Retriable("inner"))
	assert.True(t, IsRetryable(wrapped))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	e := Retriable("keep me")
	assert.Same(t, e, Wrap(e))

	plain := Wrap(errors.New("db gone"))
	assert.Equal(t, "db gone", plain.Message)
	assert.False(t, plain.Retryable)
	assert.Equal(t, 500, plain.Code)
}
