package content

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// PlainText renders a sanitized HTML fragment as terminal text: headings and
// paragraphs on their own lines, list items bulleted, preformatted blocks
// kept verbatim.
func PlainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var b strings.Builder
	renderNodes(&b, doc.Find("body"))
	return tidy(b.String())
}

func renderNodes(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch name := goquery.NodeName(c); name {
		case "#text":
			writeText(b, c.Text())
		case "br":
			b.WriteByte('\n')
		case "li":
			breakLine(b)
			b.WriteString("• ")
			renderNodes(b, c)
			breakLine(b)
		case "pre":
			breakLine(b)
			b.WriteString(c.Text())
			breakLine(b)
		case "td", "th":
			renderNodes(b, c)
			b.WriteString("  ")
		case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "ul", "ol", "table", "tr":
			breakLine(b)
			renderNodes(b, c)
			breakLine(b)
		default:
			renderNodes(b, c)
		}
	})
}

// writeText collapses whitespace runs, keeping one space at either edge so
// inline siblings stay separated.
func writeText(b *strings.Builder, t string) {
	collapsed := strings.Join(strings.Fields(t), " ")
	if collapsed == "" {
		if t != "" {
			b.WriteByte(' ')
		}
		return
	}
	if strings.TrimLeftFunc(t, unicode.IsSpace) != t {
		b.WriteByte(' ')
	}
	b.WriteString(collapsed)
	if strings.TrimRightFunc(t, unicode.IsSpace) != t {
		b.WriteByte(' ')
	}
}

func breakLine(b *strings.Builder) {
	if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}

// tidy trims every line and drops blank ones.
func tidy(s string) string {
	var lines []string
	for line := range strings.Lines(s) {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
