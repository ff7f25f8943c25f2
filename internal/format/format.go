// Package format renders analysis text written in a small markdown subset.
//
// The supported rules are fixed: **bold**, *italic*, "# ", "## " and "### " headings
// at the start of a line, "- " list items, and empty lines as paragraph breaks.
// Anything else is emitted as escaped text. This is not a general markdown parser.
package format

import (
	"html"
	"html/template"
	"strings"
)

// ParagraphOpen is the tag the rendered fragment is meant to be placed after.
const ParagraphOpen = `<p class="mb-4">`

const paragraphBreak = `</p>` + ParagraphOpen

var headingTags = [...]struct{ open, close string }{
	{`<h1 class="text-2xl font-bold text-gray-900 mt-8 mb-4">`, `</h1>`},
	{`<h2 class="text-xl font-bold text-gray-900 mt-8 mb-3">`, `</h2>`},
	{`<h3 class="text-lg font-semibold text-gray-900 mt-6 mb-2">`, `</h3>`},
}

const (
	listItemOpen  = `<li class="ml-4">`
	listItemClose = `</li>`
)

// Fragment converts text to an HTML fragment. The fragment continues an already
// open paragraph; paragraph breaks close it and open the next one.
func Fragment(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var b strings.Builder
	wrote := false
	pendingBreak := false
	for _, line := range lines {
		// Only empty lines break paragraphs; a line of spaces is text.
		if line == "" {
			pendingBreak = wrote
			continue
		}
		if wrote {
			if pendingBreak {
				b.WriteString(paragraphBreak)
			} else {
				b.WriteByte('\n')
			}
		}
		b.WriteString(renderLine(line))
		wrote = true
		pendingBreak = false
	}
	return b.String()
}

// HTML renders text as a complete paragraph block ready for a template.
func HTML(text string) template.HTML {
	return template.HTML(ParagraphOpen + Fragment(StripFence(text)) + `</p>`) //nolint: gosec
}

// renderLine applies the block rule for a single line. Block rules are checked
// before inline rules, so a heading's text may itself contain bold or italic.
func renderLine(line string) string {
	if level, rest, ok := headingLevel(line); ok {
		tag := headingTags[level-1]
		return tag.open + renderInline(rest) + tag.close
	}
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return listItemOpen + renderInline(rest) + listItemClose
	}
	return renderInline(line)
}

func headingLevel(line string) (int, string, bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > len(headingTags) || n >= len(line) || line[n] != ' ' {
		return 0, "", false
	}
	return n, line[n+1:], true
}

// StripFence removes a markdown code fence wrapping the whole text, which language
// models sometimes add around their answer.
func StripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}

	lines := strings.Split(trimmed, "\n")
	endIdx := -1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx == -1 {
		return text
	}
	return strings.Join(lines[1:endIdx], "\n")
}

func escape(s string) string {
	return html.EscapeString(s)
}
