// Package markdown turns operator slide text into sanitized HTML.
//
// The dialect is deliberately small and line oriented: headings, single-line
// blockquotes, flat lists, fenced code and paragraphs whose lines are kept
// apart with <br>. Anything the compiler does not understand is emitted as
// escaped text, so Compile never fails.
package markdown

import (
	"regexp"
	"strings"
)

const emptyParagraph = "<p></p>"

var (
	headingPattern    = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	blockquotePattern = regexp.MustCompile(`^>\s?(.*)$`)
	unorderedPattern  = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	orderedPattern    = regexp.MustCompile(`^\d+\.\s+(.*)$`)
)

type listKind int

const (
	listNone listKind = iota
	listUnordered
	listOrdered
)

// compiler carries the state of a single pass over the source lines.
type compiler struct {
	out       strings.Builder
	inFence   bool
	fence     []string
	list      listKind
	paragraph []string
}

// Compile converts slide markdown into an HTML fragment. The result is
// never empty.
func Compile(source string) string {
	c := &compiler{}
	for _, raw := range splitLines(source) {
		c.line(strings.ReplaceAll(raw, "\t", "    "))
	}
	c.finish()

	if c.out.Len() == 0 {
		return emptyParagraph
	}
	return c.out.String()
}

func (c *compiler) line(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "```") {
		if c.inFence {
			c.flushFence()
			return
		}
		c.flushParagraph()
		c.closeList()
		c.inFence = true
		return
	}

	if c.inFence {
		c.fence = append(c.fence, line)
		return
	}

	if trimmed == "" {
		c.flushParagraph()
		c.closeList()
		return
	}

	if m := headingPattern.FindStringSubmatch(line); m != nil {
		c.flushParagraph()
		c.closeList()
		level := string(rune('0' + len(m[1])))
		c.out.WriteString("<h" + level + ">")
		c.out.WriteString(renderInline(m[2]))
		c.out.WriteString("</h" + level + ">")
		return
	}

	if m := blockquotePattern.FindStringSubmatch(line); m != nil {
		c.flushParagraph()
		c.closeList()
		c.out.WriteString("<blockquote>")
		c.out.WriteString(renderInline(m[1]))
		c.out.WriteString("</blockquote>")
		return
	}

	if m := unorderedPattern.FindStringSubmatch(line); m != nil {
		c.listItem(listUnordered, m[1])
		return
	}

	if m := orderedPattern.FindStringSubmatch(line); m != nil {
		c.listItem(listOrdered, m[1])
		return
	}

	c.paragraph = append(c.paragraph, trimmed)
}

func (c *compiler) listItem(kind listKind, text string) {
	c.flushParagraph()
	if c.list != kind {
		c.closeList()
		c.list = kind
		if kind == listOrdered {
			c.out.WriteString("<ol>")
		} else {
			c.out.WriteString("<ul>")
		}
	}
	c.out.WriteString("<li>")
	c.out.WriteString(renderInline(text))
	c.out.WriteString("</li>")
}

func (c *compiler) closeList() {
	switch c.list {
	case listOrdered:
		c.out.WriteString("</ol>")
	case listUnordered:
		c.out.WriteString("</ul>")
	}
	c.list = listNone
}

func (c *compiler) flushParagraph() {
	if len(c.paragraph) == 0 {
		return
	}
	c.out.WriteString("<p>")
	for i, line := range c.paragraph {
		if i > 0 {
			c.out.WriteString("<br>")
		}
		c.out.WriteString(renderInline(line))
	}
	c.out.WriteString("</p>")
	c.paragraph = c.paragraph[:0]
}

func (c *compiler) flushFence() {
	c.out.WriteString("<pre><code>")
	c.out.WriteString(EscapeHTML(strings.Join(c.fence, "\n")))
	c.out.WriteString("</code></pre>")
	c.fence = c.fence[:0]
	c.inFence = false
}

func (c *compiler) finish() {
	c.flushParagraph()
	c.closeList()
	// An unterminated fence still renders what it collected.
	if c.inFence {
		c.flushFence()
	}
}

// Plain renders source without markdown interpretation: blank-line separated
// blocks become paragraphs and their lines are joined with <br>.
func Plain(source string) string {
	var out strings.Builder
	var block []string
	flush := func() {
		if len(block) == 0 {
			return
		}
		out.WriteString("<p>")
		for i, line := range block {
			if i > 0 {
				out.WriteString("<br>")
			}
			out.WriteString(EscapeHTML(line))
		}
		out.WriteString("</p>")
		block = block[:0]
	}
	for _, line := range splitLines(source) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		block = append(block, trimmed)
	}
	flush()
	if out.Len() == 0 {
		return emptyParagraph
	}
	return out.String()
}

func splitLines(source string) []string {
	return strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
}
