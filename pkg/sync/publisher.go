package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/rs/zerolog/log"
)

const (
	publishPollTries    = 20
	publishPollInterval = 250 * time.Millisecond
)

// Publish submits the pattern form and waits for a success or error signal.
// An error flash or the absence of any signal is a publish failure.
func Publish(ctx context.Context, c console.Console, name string) error {
	submit, err := c.Element(selPublishButton)
	if err != nil {
		return fmt.Errorf("failed locating publish control: %w", err)
	}
	if err := submit.Click(); err != nil {
		return fmt.Errorf("failed clicking publish: %w", err)
	}

	for try := 0; try < publishPollTries; try++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if flash, err := visibleFlash(c, selFlashError); err != nil {
			return err
		} else if flash != "" {
			return fmt.Errorf("publish rejected: %s", flash)
		}

		if flash, err := visibleFlash(c, selFlashNotice); err != nil {
			return err
		} else if flash != "" {
			log.Info().Str("pattern", name).Msg("Pattern published")
			return nil
		}

		time.Sleep(publishPollInterval)
	}

	return fmt.Errorf("no publish confirmation observed for %q", name)
}

func visibleFlash(c console.Console, selector string) (string, error) {
	has, el, err := c.Has(selector)
	if err != nil {
		return "", err
	}
	if !has {
		return "", nil
	}
	if visible, _ := el.Visible(); !visible {
		return "", nil
	}
	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
