package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOf(t *testing.T) {
	cause := errors.New("boom")
	assert.Equal(t, ExitOK, ExitCodeOf(nil))
	assert.Equal(t, ExitFailure, ExitCodeOf(cause))
	assert.Equal(t, ExitConfig, ExitCodeOf(Wrap(ExitConfig, "loading policy", cause)))
	assert.Equal(t, ExitInput, ExitCodeOf(fmt.Errorf("outer: %w", New(ExitInput, "bad target"))))
	assert.Equal(t, ExitFailure, ExitCodeOf(New(0, "zero is not an error code")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ExitConfig, "loading policy", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "loading policy: boom", err.Error())
	assert.Equal(t, "plain", Wrap(ExitInput, "plain", nil).Error())
}

func TestSilent(t *testing.T) {
	assert.True(t, IsSilent(Silent(ExitFailure)))
	assert.False(t, IsSilent(New(ExitFailure, "loud")))
	assert.False(t, IsSilent(errors.New("plain")))
	assert.Equal(t, ExitFailure, ExitCodeOf(Silent(ExitFailure)))
}
