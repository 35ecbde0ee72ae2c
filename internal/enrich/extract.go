package enrich

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/net/html"
)

// maxLinks caps how many links one summary carries.
const maxLinks = 25

// resourceHints mark a link as pointing at project resources rather than
// navigation chrome.
var resourceHints = []string{
	"github.com",
	"gitlab.com",
	"docs",
	"documentation",
	"wiki",
	"download",
	"getting-started",
}

type extracted struct {
	title         string
	description   string
	links         []Link
	resourceLinks []Link
}

// extract parses an HTML document and pulls out the title, the meta
// description, and de-duplicated absolute links.
func extract(body []byte, pageURL string) (*extracted, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}

	out := &extracted{links: []Link{}, resourceLinks: []Link{}}
	seen := make(map[string]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if out.title == "" {
					out.title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				if out.description == "" {
					out.description = metaDescription(n)
				}
			case "a":
				if link, ok := anchorLink(n, base); ok {
					if _, dup := seen[link.URL]; !dup && len(out.links) < maxLinks {
						seen[link.URL] = struct{}{}
						out.links = append(out.links, link)
						if isResourceLink(link) {
							out.resourceLinks = append(out.resourceLinks, link)
						}
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func metaDescription(n *html.Node) string {
	var name, content string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "name", "property":
			name = strings.ToLower(attr.Val)
		case "content":
			content = attr.Val
		}
	}
	if name == "description" || name == "og:description" {
		return strings.TrimSpace(content)
	}
	return ""
}

func anchorLink(n *html.Node, base *url.URL) (Link, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = attr.Val
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return Link{}, false
	}

	resolved, err := base.Parse(href)
	if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
		return Link{}, false
	}

	text := strings.TrimSpace(textContent(n))
	if text == "" {
		text = resolved.String()
	}
	return Link{Text: text, URL: resolved.String()}, true
}

func isResourceLink(link Link) bool {
	target := strings.ToLower(link.URL + " " + link.Text)
	for _, hint := range resourceHints {
		if strings.Contains(target, hint) {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
