// Package pdftext pulls plain text out of PDF bytes, one page at a time.
package pdftext

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// magic is the header every PDF file starts with.
var magic = []byte("%PDF-")

// IsPDF reports whether b looks like a PDF document.
func IsPDF(b []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(b, " \t\r\n\x00\xef\xbb\xbf"), magic)
}

// FromBytes returns the text of every page that could be read, joined by
// newlines. Pages that fail to decode are skipped; an unreadable document
// yields "".
func FromBytes(b []byte) string {
	pages := Pages(b)
	return strings.Join(pages, "\n")
}

// Pages returns the text of each readable page in order.
func Pages(b []byte) (pages []string) {
	// A broken xref or object stream can panic inside the reader; keep the
	// pages collected so far.
	defer func() { _ = recover() }()

	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil
	}

	total := r.NumPage()
	for i := 1; i <= total; i++ {
		if text, ok := pageText(r, i); ok {
			pages = append(pages, text)
		}
	}
	return pages
}

func pageText(r *pdf.Reader, n int) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return "", false
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", false
	}
	return text, true
}
