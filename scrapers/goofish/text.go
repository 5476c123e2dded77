package goofish

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "section": true, "table": true, "tr": true, "ul": true,
}

var whitespace = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// innerText approximates the browser's innerText: block elements start on
// a new line, inline runs are joined, blank lines are dropped.
func innerText(s *goquery.Selection) string {
	var b strings.Builder
	s.Each(func(_ int, el *goquery.Selection) {
		writeText(&b, el)
	})

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch name := goquery.NodeName(c); {
		case name == "#text":
			// Source newlines collapse like any other whitespace.
			b.WriteString(whitespace.Replace(c.Text()))
		case name == "br":
			b.WriteString("\n")
		case name == "script" || name == "style" || name == "noscript":
		case blockTags[name]:
			b.WriteString("\n")
			writeText(b, c)
			b.WriteString("\n")
		case strings.HasPrefix(name, "#"):
		default:
			writeText(b, c)
		}
	})
}
