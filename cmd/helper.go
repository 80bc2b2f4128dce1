package cmd

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/CompassSecurity/patternsync/pkg/config"
	"github.com/CompassSecurity/patternsync/pkg/console"
	"github.com/CompassSecurity/patternsync/pkg/httpclient"
	"github.com/CompassSecurity/patternsync/pkg/scope"
	"github.com/CompassSecurity/patternsync/pkg/system"
	"github.com/rs/zerolog/log"
)

const sessionCookieName = "user_session"

func buildTarget(server string, name string, scopeFlag string) scope.Target {
	if err := config.ValidateURL(server, "server"); err != nil {
		log.Fatal().Err(err).Msg("Invalid server URL")
	}
	if name == "" {
		log.Fatal().Msg("A target must be provided")
	}

	parsed, err := scope.Parse(scopeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scope")
	}

	return scope.Target{Server: strings.TrimSuffix(server, "/"), Name: name, Scope: parsed}
}

func sessionCookies(value string) []*http.Cookie {
	return []*http.Cookie{{Name: sessionCookieName, Value: value}}
}

// apiBaseURL maps the console URL onto its REST API base. The public
// console has a dedicated API host, enterprise servers serve the API under
// /api/v3.
func apiBaseURL(server string) string {
	if strings.TrimSuffix(server, "/") == "https://github.com" {
		return "https://api.github.com"
	}
	return strings.TrimSuffix(server, "/") + "/api/v3"
}

// cookieSessionValid probes the pattern listing over plain HTTP before any
// browser is launched. An invalid cookie fails fast here instead of after
// minutes of console driving.
func cookieSessionValid(target scope.Target, cookieVal string) {
	client := httpclient.GetPatternsyncHTTPClient(target.Server, sessionCookies(cookieVal), nil)

	resp, err := client.Get(target.PatternListURL())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed session cookie test")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatal().Int("http", resp.StatusCode).Msg("Negative session cookie test")
	}

	body, err := io.ReadAll(resp.Body)
	if err == nil && console.IsLoginPage(resp.Request.URL.String(), string(body)) {
		log.Fatal().Msg("Session cookie bounced to the sign-in page, provide a fresh one")
	}

	log.Info().Msg("Provided session cookie is valid")
}

// launchConsole starts the browser with the session cookie injected and
// registers the shutdown handler that reaps the Chromium process.
func launchConsole(target scope.Target, cookieVal string, debug bool) (*console.Browser, console.Console) {
	browser, err := console.Launch(target.Server, sessionCookies(cookieVal), console.Options{Headful: debug})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed launching browser")
	}
	system.RegisterGracefulShutdownHandler(browser.Close)

	page, err := browser.NewPage(context.Background(), "")
	if err != nil {
		browser.Close()
		log.Fatal().Err(err).Msg("Failed opening browser page")
	}

	return browser, page
}
