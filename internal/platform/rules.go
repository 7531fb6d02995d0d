// Package platform holds the website-builder platforms webunpack can export
// from and the URL validator that gates every export.
package platform

import (
	"regexp"
)

// Platform keys.
const (
	Framer      = "framer"
	Webflow     = "webflow"
	WordPress   = "wordpress"
	Wix         = "wix"
	Shopify     = "shopify"
	Bolt        = "bolt"
	Lovable     = "lovable"
	Notion      = "notion"
	Squarespace = "squarespace"
	Replit      = "replit"
	Gumroad     = "gumroad"
	Rocket      = "rocket"
	General     = "general"
)

// DefaultKey is the platform preselected for a new export.
const DefaultKey = Framer

// Maturity marks whether exports from a platform are generally available.
type Maturity int

const (
	Stable Maturity = iota
	// Testing platforms never pass validation; they only carry a warning.
	Testing
)

func (m Maturity) String() string {
	if m == Testing {
		return "testing"
	}
	return "stable"
}

// Rule describes one supported platform. Rules are immutable after init.
type Rule struct {
	Key      string
	Name     string
	Maturity Maturity
	patterns []*regexp.Regexp
}

// Patterns returns the source of each matching pattern.
func (r Rule) Patterns() []string {
	out := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = p.String()
	}
	return out
}

// Universal reports whether the rule accepts any website.
func (r Rule) Universal() bool {
	return r.Key == General
}

// Matches reports whether any pattern matches the lowercased hostname or full URL.
func (r Rule) Matches(hostname, fullURL string) bool {
	for _, p := range r.patterns {
		if p.MatchString(hostname) || p.MatchString(fullURL) {
			return true
		}
	}
	return false
}

func rule(key, name string, maturity Maturity, patterns ...string) Rule {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return Rule{Key: key, Name: name, Maturity: maturity, patterns: compiled}
}

var rules = []Rule{
	rule(Framer, "Framer", Stable,
		`\.framer\.website$`, `\.framer\.site$`, `framer\.site$`, `framer\.website$`, `\.framer\.app$`),
	rule(Webflow, "Webflow", Stable,
		`\.webflow\.io$`, `webflow\.io$`, `\.webflow\.com$`, `webflow\.com$`),
	rule(WordPress, "WordPress", Testing,
		`wordpress\.com$`, `\.wordpress\.com$`, `wp-content`, `wp-admin`, `wp-includes`),
	rule(Wix, "Wix", Testing,
		`wixsite\.com$`, `\.wixsite\.com$`, `wix\.com$`, `\.wix\.com$`),
	rule(Shopify, "Shopify", Testing,
		`\.myshopify\.com$`, `myshopify\.com$`, `shopifycdn\.com`),
	rule(Bolt, "Bolt.new", Testing,
		`bolt\.new$`, `bolt\.host$`, `\.bolt\.new$`, `\.bolt\.host$`),
	rule(Lovable, "Lovable", Testing,
		`lovable\.dev$`, `lovable\.com$`, `\.lovable\.dev$`, `\.lovable\.com$`, `lovableproject\.com$`),
	rule(Notion, "Notion", Testing,
		`notion\.so$`, `\.notion\.so$`, `notion\.site$`, `\.notion\.site$`),
	rule(Squarespace, "Squarespace", Testing,
		`squarespace\.com$`, `\.squarespace\.com$`, `static1\.squarespace\.com`),
	rule(Replit, "Replit", Testing,
		`replit\.com$`, `\.replit\.com$`, `repl\.it$`, `\.repl\.it$`),
	rule(Gumroad, "Gumroad", Testing,
		`gumroad\.com$`, `\.gumroad\.com$`),
	rule(Rocket, "Rocket.new", Testing,
		`rocket\.new$`, `\.rocket\.new$`),
	rule(General, "Universal Scraper", Stable),
}

var byKey = func() map[string]Rule {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[r.Key] = r
	}
	return m
}()

// Lookup returns the rule registered for key.
func Lookup(key string) (Rule, bool) {
	r, ok := byKey[key]
	return r, ok
}

// Rules returns every registered rule in display order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Keys returns every registered platform key in display order.
func Keys() []string {
	keys := make([]string, len(rules))
	for i, r := range rules {
		keys[i] = r.Key
	}
	return keys
}
