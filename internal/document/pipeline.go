package document

import (
	"context"

	"loanmitra/internal/extractor"
	"loanmitra/internal/translate"
)

// PivotLanguage is the language documents are summarized into before the
// optional vernacular translation step.
const PivotLanguage = "en-IN"

// Explainer produces the plain-language breakdown of extracted document
// text. Satisfied by *llm.Client.
type Explainer interface {
	ExplainDocument(ctx context.Context, rawText string) (string, error)
}

// Translator renders long pivot-language text into a vernacular language
// under an explicit degradation policy. Satisfied by *translate.Client.
type Translator interface {
	LongWithPolicy(ctx context.Context, req translate.Request, policy translate.Policy) (string, error)
}

// Result is the document pipeline's output.
type Result struct {
	RawText               string `json:"raw_text"`
	EnglishExplanation    string `json:"english_explanation"`
	VernacularExplanation string `json:"vernacular_explanation"`
}

// Pipeline runs OCR, LLM simplification and vernacular translation in
// sequence. Each stage gates on the previous one succeeding; only the
// translation stage degrades gracefully.
type Pipeline struct {
	OCR        extractor.Config
	Explainer  Explainer
	Translator Translator

	// extract is swappable in tests; nil means extractor.ExtractDocument.
	extract func(extractor.Config, []byte, string) (string, error)
}

func (p *Pipeline) extractText(data []byte, mimeType string) (string, error) {
	if p.extract != nil {
		return p.extract(p.OCR, data, mimeType)
	}
	return extractor.ExtractDocument(p.OCR, data, mimeType)
}

// Process explains one uploaded document for a target language.
func (p *Pipeline) Process(ctx context.Context, data []byte, mimeType, targetLang string) (*Result, error) {
	rawText, err := p.extractText(data, mimeType)
	if err != nil {
		return nil, err
	}

	english, err := p.Explainer.ExplainDocument(ctx, rawText)
	if err != nil {
		return nil, err
	}

	// Vernacular step is best-effort: on translation failure the pivot
	// text stands in, unlike the strict /translate endpoint.
	vernacular := english
	if targetLang != PivotLanguage {
		vernacular, err = p.Translator.LongWithPolicy(ctx, translate.Request{
			Input:              english,
			SourceLanguageCode: PivotLanguage,
			TargetLanguageCode: targetLang,
		}, translate.BestEffort)
		if err != nil {
			vernacular = english
		}
	}

	return &Result{
		RawText:               rawText,
		EnglishExplanation:    english,
		VernacularExplanation: vernacular,
	}, nil
}
