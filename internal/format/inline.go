package format

import "strings"

// Inline rules run in a fixed order: "**" pairs are matched first (left to right,
// shortest span), then single "*" pairs are matched among what remains at each
// level. An italic span may enclose a bold span but never straddles one, so the
// output is always well nested. Unmatched markers are kept as literal text.

type segment struct {
	text string
	bold bool
}

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenStar
	tokenHTML
)

type token struct {
	kind tokenKind
	text string
}

func renderInline(s string) string {
	var toks []token
	for _, seg := range splitBold(s) {
		if seg.bold {
			inner := renderItalic(tokenize(seg.text))
			toks = append(toks, token{kind: tokenHTML, text: "<strong>" + inner + "</strong>"})
			continue
		}
		toks = append(toks, tokenize(seg.text)...)
	}
	return renderItalic(toks)
}

func splitBold(s string) []segment {
	var segs []segment
	for {
		open := strings.Index(s, "**")
		if open < 0 {
			break
		}
		closeAt := strings.Index(s[open+2:], "**")
		if closeAt < 0 {
			break
		}
		if closeAt == 0 {
			// "****" has nothing to embolden; keep the first pair as text.
			segs = append(segs, segment{text: s[:open+2]})
			s = s[open+2:]
			continue
		}
		if open > 0 {
			segs = append(segs, segment{text: s[:open]})
		}
		segs = append(segs, segment{text: s[open+2 : open+2+closeAt], bold: true})
		s = s[open+2+closeAt+2:]
	}
	if s != "" {
		segs = append(segs, segment{text: s})
	}
	return segs
}

func tokenize(s string) []token {
	var toks []token
	for s != "" {
		i := strings.IndexByte(s, '*')
		if i < 0 {
			toks = append(toks, token{kind: tokenText, text: s})
			break
		}
		if i > 0 {
			toks = append(toks, token{kind: tokenText, text: s[:i]})
		}
		toks = append(toks, token{kind: tokenStar})
		s = s[i+1:]
	}
	return toks
}

func renderItalic(toks []token) string {
	var b strings.Builder
	for i := 0; i < len(toks); {
		if toks[i].kind != tokenStar {
			writeToken(&b, toks[i])
			i++
			continue
		}

		j := i + 1
		for j < len(toks) && toks[j].kind != tokenStar {
			j++
		}
		if j < len(toks) && j > i+1 {
			b.WriteString("<em>")
			for _, t := range toks[i+1 : j] {
				writeToken(&b, t)
			}
			b.WriteString("</em>")
			i = j + 1
			continue
		}

		b.WriteByte('*')
		i++
	}
	return b.String()
}

func writeToken(b *strings.Builder, t token) {
	switch t.kind {
	case tokenText:
		b.WriteString(escape(t.text))
	case tokenHTML:
		b.WriteString(t.text)
	case tokenStar:
		b.WriteByte('*')
	}
}
