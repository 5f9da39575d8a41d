package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/vacancy-watch/models"
	"golang.org/x/net/html"
)

// Parser selects document links out of an HTML page.
type Parser struct {
	extensions []string
	fragments  []string
}

// New returns a Parser that keeps links whose path or whole URL ends in one
// of extensions, or whose URL contains one of fragments. Both comparisons
// ignore case.
func New(extensions, fragments []string) *Parser {
	p := &Parser{}
	for _, e := range extensions {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			p.extensions = append(p.extensions, e)
		}
	}
	for _, f := range fragments {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			p.fragments = append(p.fragments, f)
		}
	}
	return p
}

// ExtractCandidates returns the document links on the page in document order,
// one entry per absolute URL. The fragment is dropped before selection and
// dedup, since it never changes the document served.
func (p *Parser) ExtractCandidates(rawHTML, baseURL string) ([]models.Candidate, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]struct{})
	candidates := []models.Candidate{}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		resolved.RawFragment = ""

		switch strings.ToLower(resolved.Scheme) {
		case "http", "https":
		default:
			return
		}

		if !p.isDocument(resolved) {
			return
		}

		full := resolved.String()
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}

		candidates = append(candidates, models.Candidate{
			URL:        full,
			AnchorText: anchorText(s),
		})
	})

	return candidates, nil
}

// isDocument checks the extension against both the path and the whole URL,
// so /descargar?archivo=bases.pdf is kept as well as /a.pdf?download=1.
func (p *Parser) isDocument(u *url.URL) bool {
	path := strings.ToLower(u.Path)
	full := strings.ToLower(u.String())
	for _, ext := range p.extensions {
		if strings.HasSuffix(path, ext) || strings.HasSuffix(full, ext) {
			return true
		}
	}
	for _, frag := range p.fragments {
		if strings.Contains(full, frag) {
			return true
		}
	}
	return false
}

// anchorText joins the text nodes under s with single spaces, so that
// <b>Fiscalizador</b><i>Provincial</i> reads as two words.
func anchorText(s *goquery.Selection) string {
	return textOf(s.Nodes)
}

func textOf(nodes []*html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return NormalizeText(strings.Join(parts, " "))
}

// NormalizeText collapses every run of whitespace to one space and trims the ends.
func NormalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// DocumentText returns the visible text of an HTML document, whitespace-collapsed.
// Script and style contents are dropped.
func DocumentText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script,style,noscript,template").Remove()
	return textOf(doc.Nodes), nil
}
