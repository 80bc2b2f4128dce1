package logging

import (
	"sync"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func SetLogLevel(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Debug().Msg("Verbose log output enabled")
	}
}

// StatusHookFN produces a status event shown when the user presses "s".
type StatusHookFN func() *zerolog.Event

var (
	statusHookMutex sync.RWMutex
	statusHook      StatusHookFN
)

// RegisterStatusHook allows commands to register a custom status function
func RegisterStatusHook(hook StatusHookFN) {
	statusHookMutex.Lock()
	defer statusHookMutex.Unlock()
	statusHook = hook
}

// GetStatusHook returns the registered status hook or a default one
func GetStatusHook() StatusHookFN {
	statusHookMutex.RLock()
	defer statusHookMutex.RUnlock()
	if statusHook != nil {
		return statusHook
	}
	return defaultStatusHook
}

func defaultStatusHook() *zerolog.Event {
	return log.Info().Str("status", "nothing to show")
}

var shortcutLevels = map[string]zerolog.Level{
	"t": zerolog.TraceLevel,
	"d": zerolog.DebugLevel,
	"i": zerolog.InfoLevel,
	"w": zerolog.WarnLevel,
	"e": zerolog.ErrorLevel,
}

// ShortcutListeners hooks runtime keyboard shortcuts: t/d/i/w/e switch the
// log level, s prints the registered status hook, Ctrl-C and Escape stop
// listening. Run it in its own goroutine.
func ShortcutListeners() {
	err := keyboard.Listen(func(key keys.Key) (stop bool, err error) {
		switch key.Code {
		case keys.CtrlC, keys.Escape:
			return true, nil
		case keys.RuneKey:
			if level, ok := shortcutLevels[key.String()]; ok {
				zerolog.SetGlobalLevel(level)
				log.Info().Str("logLevel", level.String()).Msg("New Log level")
			}

			if key.String() == "s" {
				currentHook := GetStatusHook()
				currentHook().Msg("Status")
			}
		}

		return false, nil
	})

	if err != nil {
		log.Error().Err(err).Msg("Failed hooking keyboard bindings")
	}
}
