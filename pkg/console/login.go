package console

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractHTMLTitle returns the <title> of an HTML document, "" when the
// content is not HTML or has no title.
func ExtractHTMLTitle(content string) string {
	contentLower := strings.ToLower(content)
	if !strings.Contains(contentLower, "<html") {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = n.FirstChild.Data
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	return title
}

// IsLoginPage reports whether a navigation bounced to the sign-in page,
// which means the session cookie is invalid or expired.
func IsLoginPage(currentURL string, pageHTML string) bool {
	if strings.Contains(currentURL, "/login") || strings.Contains(currentURL, "/session") {
		return true
	}
	title := strings.ToLower(ExtractHTMLTitle(pageHTML))
	return strings.Contains(title, "sign in")
}
