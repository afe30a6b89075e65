package markdown

import (
	"regexp"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five characters that are significant in HTML text
// and attribute values.
func EscapeHTML(value string) string {
	return htmlEscaper.Replace(value)
}

// spanMatcher recognises one inline span at the start of its input and
// renders it. Captured groups arrive unescaped.
type spanMatcher struct {
	pattern *regexp.Regexp
	render  func(groups []string) string
}

// spanMatchers is ordered by precedence; the first matcher that fits at a
// position wins.
var spanMatchers = []spanMatcher{
	{
		pattern: regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)`),
		render: func(g []string) string {
			return `<img alt="` + EscapeHTML(g[1]) + `" src="` + safeURL(g[2]) + `" />`
		},
	},
	{
		pattern: regexp.MustCompile(`^\[([^\]]+)\]\(([^)]+)\)`),
		render: func(g []string) string {
			return `<a href="` + safeURL(g[2]) + `" target="_blank" rel="noopener noreferrer">` + EscapeHTML(g[1]) + `</a>`
		},
	},
	{
		pattern: regexp.MustCompile("^`([^`]+)`"),
		render:  wrap("code"),
	},
	{
		pattern: regexp.MustCompile(`^\*\*([^*]+)\*\*`),
		render:  wrap("strong"),
	},
	{
		pattern: regexp.MustCompile(`^__([^_]+)__`),
		render:  wrap("strong"),
	},
	{
		pattern: regexp.MustCompile(`^\*([^*]+)\*`),
		render:  wrap("em"),
	},
	{
		pattern: regexp.MustCompile(`^_([^_]+)_`),
		render:  wrap("em"),
	},
	{
		pattern: regexp.MustCompile(`^~~([^~]+)~~`),
		render:  wrap("del"),
	},
}

func wrap(tag string) func([]string) string {
	return func(g []string) string {
		return "<" + tag + ">" + EscapeHTML(g[1]) + "</" + tag + ">"
	}
}

// safeURL escapes a link target and neutralises script-bearing schemes.
func safeURL(raw string) string {
	scheme := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(scheme, "javascript:") || strings.HasPrefix(scheme, "vbscript:") {
		return "#"
	}
	return EscapeHTML(raw)
}

// spanStart lists the bytes a span can begin with.
const spanStart = "![`*_~"

// renderInline walks text once, left to right. Text between spans is
// escaped; span output is never scanned again, so tags produced by one
// matcher cannot be picked up by another.
func renderInline(text string) string {
	var out strings.Builder
	plainFrom := 0
	i := 0
	for i < len(text) {
		if strings.IndexByte(spanStart, text[i]) < 0 {
			i++
			continue
		}
		rendered, width := matchSpan(text[i:])
		if width == 0 {
			i++
			continue
		}
		out.WriteString(EscapeHTML(text[plainFrom:i]))
		out.WriteString(rendered)
		i += width
		plainFrom = i
	}
	out.WriteString(EscapeHTML(text[plainFrom:]))
	return out.String()
}

func matchSpan(rest string) (string, int) {
	for _, m := range spanMatchers {
		groups := m.pattern.FindStringSubmatch(rest)
		if groups == nil {
			continue
		}
		return m.render(groups), len(groups[0])
	}
	return "", 0
}
