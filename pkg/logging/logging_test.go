package logging

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetLogLevel(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	SetLogLevel(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestStatusHookDefault(t *testing.T) {
	RegisterStatusHook(nil)
	hook := GetStatusHook()
	assert.NotNil(t, hook)
	assert.NotNil(t, hook())
}

func TestRegisterStatusHook(t *testing.T) {
	defer RegisterStatusHook(nil)

	called := false
	RegisterStatusHook(func() *zerolog.Event {
		called = true
		logger := zerolog.New(io.Discard)
		return logger.Info()
	})

	hook := GetStatusHook()
	hook().Msg("status")
	assert.True(t, called)
}

func TestShortcutLevels(t *testing.T) {
	tests := []struct {
		key      string
		expected zerolog.Level
	}{
		{"t", zerolog.TraceLevel},
		{"d", zerolog.DebugLevel},
		{"i", zerolog.InfoLevel},
		{"w", zerolog.WarnLevel},
		{"e", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			level, ok := shortcutLevels[tt.key]
			assert.True(t, ok)
			assert.Equal(t, tt.expected, level)
		})
	}
}
