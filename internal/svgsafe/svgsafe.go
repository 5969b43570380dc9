// Package svgsafe strips scriptable content from admin-uploaded SVG maps
// before they are inlined into the public site.
package svgsafe

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements dropped together with everything inside them.
var droppedContainers = map[string]bool{
	"script":        true,
	"foreignobject": true,
	"iframe":        true,
	"object":        true,
	"handler":       true,
}

// Void elements dropped on their own; they never carry an end tag.
var droppedVoids = map[string]bool{
	"embed": true,
	"link":  true,
	"meta":  true,
	"base":  true,
}

// Clean removes script-capable elements, comments, event handler attributes
// and attribute values that carry a script URL. Tokens that need no change
// are copied byte for byte, so element and attribute case survives.
func Clean(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))

	dropDepth := 0
	svgDepth := 0
	for {
		// CDATA sections are text only inside SVG foreign content.
		z.AllowCDATA(svgDepth > 0)
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			// The document is foreign content, where no element switches the
			// tokenizer into raw text.
			z.NextIsNotRawText()
			tok := z.Token()
			if droppedContainers[tok.Data] {
				if tt == html.StartTagToken {
					dropDepth++
				}
				continue
			}
			if dropDepth > 0 || droppedVoids[tok.Data] {
				continue
			}
			if tok.Data == "svg" && tt == html.StartTagToken {
				svgDepth++
			}
			if attrs, changed := cleanAttrs(tok.Attr); changed {
				tok.Attr = attrs
				b.WriteString(tok.String())
				continue
			}
			b.Write(z.Raw())

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if droppedContainers[tag] {
				if dropDepth > 0 {
					dropDepth--
				}
				continue
			}
			if dropDepth > 0 || droppedVoids[tag] {
				continue
			}
			if tag == "svg" && svgDepth > 0 {
				svgDepth--
			}
			b.Write(z.Raw())

		case html.TextToken:
			if dropDepth == 0 {
				b.Write(z.Raw())
			}

		case html.CommentToken, html.DoctypeToken:
			// Dropped, which also removes XML prologs.
		}
	}
	return b.String()
}

func cleanAttrs(attrs []html.Attribute) ([]html.Attribute, bool) {
	out := attrs[:0:0]
	changed := false
	for _, a := range attrs {
		if strings.HasPrefix(a.Key, "on") || scriptURL(a.Val) {
			changed = true
			continue
		}
		out = append(out, a)
	}
	return out, changed
}

// scriptURL reports whether v smuggles a javascript: or vbscript: URL. Browsers
// ignore whitespace and control characters inside the scheme, so those are
// removed before comparing. The check covers animation values such as
// <set to="javascript:...">, not just href.
func scriptURL(v string) bool {
	v = strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, strings.ToLower(v))
	return strings.Contains(v, "javascript:") || strings.Contains(v, "vbscript:")
}
