package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// DefaultAllowedProtocols are the URL schemes kept in links and sources when
// no explicit list is configured.
var DefaultAllowedProtocols = []string{"http", "https", "mailto", "data"}

// executableElements are removed with their content unless scripts are enabled.
var executableElements = map[string]bool{
	"script":   true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"frame":    true,
	"frameset": true,
}

// urlAttributes carry a single URL and are checked against the whitelist.
var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"xlink:href": true,
}

// ContentPolicy restricts what user-supplied HTML may do once loaded in the
// browser.
type ContentPolicy struct {
	// AllowScripts keeps <script>, frames, plugins and on* handlers.
	AllowScripts bool

	// AllowedProtocols lists URL schemes kept in href/src-like attributes.
	// Relative URLs and fragments are always kept. Empty means
	// DefaultAllowedProtocols.
	AllowedProtocols []string
}

// Apply enforces the policy on an HTML fragment.
func (p ContentPolicy) Apply(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	doc, isFragment, err := parseHTML(fragment)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	allowed := p.AllowedProtocols
	if len(allowed) == 0 {
		allowed = DefaultAllowedProtocols
	}
	normalized := make([]string, len(allowed))
	for i, proto := range allowed {
		normalized[i] = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(proto)), ":")
	}

	p.clean(doc, normalized)
	return renderHTML(doc, isFragment)
}

func (p ContentPolicy) clean(n *html.Node, allowed []string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && !p.AllowScripts && executableElements[strings.ToLower(c.Data)] {
			n.RemoveChild(c)
			c = next
			continue
		}
		if c.Type == html.ElementNode {
			c.Attr = p.filterAttrs(c.Attr, allowed)
		}
		p.clean(c, allowed)
		c = next
	}
}

func (p ContentPolicy) filterAttrs(attrs []html.Attribute, allowed []string) []html.Attribute {
	kept := attrs[:0]
	for _, attr := range attrs {
		key := strings.ToLower(attr.Key)
		if attr.Namespace != "" {
			key = strings.ToLower(attr.Namespace + ":" + attr.Key)
		}
		if !p.AllowScripts && strings.HasPrefix(key, "on") {
			continue
		}
		if urlAttributes[key] && !isAllowedURL(attr.Val, allowed) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// isAllowedURL reports whether raw is relative or uses a whitelisted scheme.
func isAllowedURL(raw string, allowed []string) bool {
	scheme, ok := urlScheme(raw)
	if !ok {
		return true
	}
	return slices.Contains(allowed, scheme)
}

// urlScheme extracts the lowercased scheme the way a browser would, ignoring
// leading whitespace and control characters. ok is false for relative URLs.
func urlScheme(raw string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, raw)

	idx := strings.IndexAny(cleaned, ":/?#")
	if idx <= 0 || cleaned[idx] != ':' {
		return "", false
	}
	return strings.ToLower(cleaned[:idx]), true
}
