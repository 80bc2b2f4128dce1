package system

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

type ShutdownHandler func()

// RegisterGracefulShutdownHandler runs handler on SIGINT/SIGTERM before
// exiting. Used to close the browser session so no orphaned Chromium
// processes are left behind.
func RegisterGracefulShutdownHandler(handler ShutdownHandler) {
	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChannel
		log.Info().Msg("Received interrupt signal, shutting down gracefully...")
		handler()
		os.Exit(1)
	}()
}
