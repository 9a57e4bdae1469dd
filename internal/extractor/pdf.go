package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// embeddedPDFText extracts the text layer of a PDF, page by page. Scanned
// PDFs have no text layer and come back empty; the caller falls through to
// OCR in that case.
func embeddedPDFText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []string
	numPages := r.NumPage()
	for pageIndex := 1; pageIndex <= numPages; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		str, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, str)
	}

	return joinPages(pages), nil
}
