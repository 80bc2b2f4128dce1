package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/CompassSecurity/patternsync/pkg/scope"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// FindExisting walks the paginated remote pattern listing and builds the
// name to location index. A navigation failure is fatal for the lookup and
// is distinguished from a listing with zero patterns, which yields an empty
// index.
func FindExisting(ctx context.Context, c console.Console, target scope.Target) (*PatternIndex, error) {
	if err := c.Navigate(ctx, target.PatternListURL()); err != nil {
		return nil, fmt.Errorf("failed navigating to pattern listing: %w", err)
	}

	if pageHTML, err := c.HTML(); err == nil && console.IsLoginPage(c.CurrentURL(), pageHTML) {
		return nil, fmt.Errorf("%w: redirected to sign-in, session cookie invalid", console.ErrSessionLost)
	}

	index := NewPatternIndex()
	for {
		if err := c.WaitHidden(ctx, selListBusy); err != nil {
			return nil, fmt.Errorf("pattern listing never settled: %w", err)
		}

		pageHTML, err := c.HTML()
		if err != nil {
			return nil, err
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
		if err != nil {
			return nil, fmt.Errorf("failed parsing pattern listing: %w", err)
		}

		if listingReportsEmpty(doc) {
			log.Debug().Str("target", target.Name).Msg("No custom patterns exist yet")
			break
		}

		rows := extractListingRows(doc)
		for _, row := range rows {
			index.Put(row.name, row.location)
		}
		if len(rows) == 0 {
			break
		}

		hasNext, next, err := c.Has(selListNextPage)
		if err != nil {
			return nil, err
		}
		if hasNext {
			if visible, _ := next.Visible(); !visible {
				hasNext = false
			} else if enabled, _ := next.Enabled(); !enabled {
				hasNext = false
			}
		}
		if !hasNext {
			break
		}

		if err := next.Click(); err != nil {
			return nil, fmt.Errorf("failed advancing pattern listing page: %w", err)
		}
	}

	log.Info().Str("target", target.Name).Str("scope", target.Scope.String()).Int("existing", index.Len()).Msg("Discovered existing patterns")
	return index, nil
}

type listingRow struct {
	name     string
	location string
}

func extractListingRows(doc *goquery.Document) []listingRow {
	var rows []listingRow
	doc.Find(selListRow).Each(func(_ int, row *goquery.Selection) {
		link := row.Find(selListRowLink)
		name := strings.TrimSpace(link.Text())
		if name == "" {
			return
		}
		location, _ := link.Attr("href")
		rows = append(rows, listingRow{name: name, location: location})
	})
	return rows
}

func listingReportsEmpty(doc *goquery.Document) bool {
	blankslate := doc.Find(selListEmpty)
	if blankslate.Length() == 0 {
		return false
	}
	text := strings.ToLower(blankslate.Text())
	return strings.Contains(text, "no custom patterns")
}
