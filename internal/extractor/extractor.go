package extractor

import (
	"errors"
	"fmt"
	"strings"
)

// Config controls which OCR tooling is available for scanned documents.
type Config struct {
	TesseractOk bool   // true if the tesseract CLI was detected
	SarvamKey   string // Sarvam Document Intelligence subscription key (cloud OCR fallback)
}

// ErrNoText reports that recognition ran but produced only whitespace.
var ErrNoText = errors.New("could not extract any text from the document; ensure the image or PDF is clear")

// ExtractDocument recovers text from raw document bytes, dispatching on the
// advertised MIME type. PDFs are tried for embedded text first, then
// rasterized and OCRed page by page; DOCX files are unpacked directly;
// anything else is treated as a single image.
func ExtractDocument(cfg Config, data []byte, mimeType string) (string, error) {
	mime := strings.ToLower(mimeType)

	var text string
	var err error
	switch {
	case strings.Contains(mime, "pdf"):
		text, err = extractPDF(cfg, data)
	case strings.Contains(mime, "wordprocessingml") || strings.Contains(mime, "msword"):
		text, err = extractDOCX(data)
	default:
		text, err = ocrImage(data)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// joinPages concatenates per-page texts separated by a blank line, skipping
// empty pages.
func joinPages(pages []string) string {
	var kept []string
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, "\n\n")
}

// extractPDF tries embedded text first and falls back to OCR for scanned
// documents: tesseract when present, otherwise the Sarvam cloud OCR.
func extractPDF(cfg Config, data []byte) (string, error) {
	if text, err := embeddedPDFText(data); err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	if cfg.TesseractOk {
		text, err := ocrPDF(data)
		if err == nil {
			return text, nil
		}
		if cfg.SarvamKey == "" {
			return "", err
		}
	}
	if cfg.SarvamKey != "" {
		return sarvamOCR(cfg.SarvamKey, data)
	}
	return "", fmt.Errorf("pdf has no embedded text and no OCR provider is available (install tesseract + poppler or set SARVAM_API_KEY)")
}
