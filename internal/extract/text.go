package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Extraction modes
const (
	ModeText        = "text"
	ModeReadability = "readability"
)

// strippedElements never contribute visible text
var strippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
}

var (
	// Unicode-aware: &nbsp; and friends count as whitespace
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
	newlineRun    = regexp.MustCompile(`\n+`)
)

// Extractor turns a fetched HTML document into bounded plain text
type Extractor struct {
	mode     string
	maxChars int
}

// NewExtractor creates an extractor. Unknown modes fall back to plain text.
func NewExtractor(mode string, maxChars int) *Extractor {
	if mode != ModeReadability {
		mode = ModeText
	}
	return &Extractor{mode: mode, maxChars: maxChars}
}

// Extract returns the cleaned text of the document
func (e *Extractor) Extract(htmlContent string, pageURL string) (string, error) {
	var (
		raw string
		err error
	)
	if e.mode == ModeReadability {
		raw, err = Readable(htmlContent, pageURL)
	} else {
		raw, err = Text(htmlContent)
	}
	if err != nil {
		return "", err
	}
	return Clean(raw, e.maxChars), nil
}

// Text returns the body text of an HTML document with script, style,
// navigation, header and footer elements removed
func Text(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return buf.String(), nil
}

// Readable extracts the main article text using the readability algorithm
func Readable(htmlContent string, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(htmlContent), parsed)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return article.TextContent, nil
}

// Normalize collapses whitespace runs to single spaces, newline runs to a
// single newline, and trims. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// Truncate limits text to maxChars characters. maxChars <= 0 means no limit.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}

// Clean normalizes and truncates text. The cut can land on a space, so the
// result is trimmed again to keep Clean idempotent.
func Clean(text string, maxChars int) string {
	return strings.TrimSpace(Truncate(Normalize(text), maxChars))
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
