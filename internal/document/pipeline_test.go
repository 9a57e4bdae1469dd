package document

import (
	"context"
	"errors"
	"testing"

	"loanmitra/internal/extractor"
	"loanmitra/internal/translate"
)

type fakeExplainer struct {
	reply string
	err   error
}

func (f *fakeExplainer) ExplainDocument(ctx context.Context, rawText string) (string, error) {
	return f.reply, f.err
}

type fakeTranslator struct {
	calls  int
	reply  string
	broken bool
}

func (f *fakeTranslator) LongWithPolicy(ctx context.Context, req translate.Request, policy translate.Policy) (string, error) {
	f.calls++
	if f.broken {
		// Mirrors the client's degradation contract: under BestEffort
		// the input is returned instead of an error.
		if policy == translate.BestEffort {
			return req.Input, nil
		}
		return "", errors.New("translation service down")
	}
	return f.reply, nil
}

func textPipeline(explainer Explainer, tr Translator, raw string, extractErr error) *Pipeline {
	return &Pipeline{
		Explainer:  explainer,
		Translator: tr,
		extract: func(extractor.Config, []byte, string) (string, error) {
			return raw, extractErr
		},
	}
}

// ========== Process ==========

func TestProcess_EnglishTargetSkipsTranslation(t *testing.T) {
	tr := &fakeTranslator{reply: "should not be used"}
	p := textPipeline(&fakeExplainer{reply: "plain english summary"}, tr, "raw document text", nil)

	res, err := p.Process(context.Background(), []byte("pdf-bytes"), "application/pdf", "en-IN")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if tr.calls != 0 {
		t.Errorf("translator called %d times for an English target, want 0", tr.calls)
	}
	if res.VernacularExplanation != res.EnglishExplanation {
		t.Errorf("vernacular = %q, want the english text", res.VernacularExplanation)
	}
	if res.RawText != "raw document text" {
		t.Errorf("raw_text = %q", res.RawText)
	}
}

func TestProcess_VernacularTarget(t *testing.T) {
	tr := &fakeTranslator{reply: "हिंदी सारांश"}
	p := textPipeline(&fakeExplainer{reply: "english summary"}, tr, "raw", nil)

	res, err := p.Process(context.Background(), []byte("x"), "application/pdf", "hi-IN")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("translator calls = %d, want 1", tr.calls)
	}
	if res.EnglishExplanation != "english summary" || res.VernacularExplanation != "हिंदी सारांश" {
		t.Errorf("result = %+v", res)
	}
}

func TestProcess_TranslationOutageFallsBackToEnglish(t *testing.T) {
	tr := &fakeTranslator{broken: true}
	p := textPipeline(&fakeExplainer{reply: "english summary"}, tr, "raw", nil)

	res, err := p.Process(context.Background(), []byte("x"), "application/pdf", "ta-IN")
	if err != nil {
		t.Fatalf("Process should survive a translation outage: %v", err)
	}
	if res.VernacularExplanation != "english summary" {
		t.Errorf("vernacular = %q, want english fallback", res.VernacularExplanation)
	}
}

func TestProcess_ExtractionFailureStopsPipeline(t *testing.T) {
	p := textPipeline(&fakeExplainer{reply: "unused"}, &fakeTranslator{}, "", extractor.ErrNoText)

	_, err := p.Process(context.Background(), []byte("x"), "application/pdf", "hi-IN")
	if !errors.Is(err, extractor.ErrNoText) {
		t.Errorf("err = %v, want ErrNoText", err)
	}
}

func TestProcess_ExplainerFailureStopsPipeline(t *testing.T) {
	tr := &fakeTranslator{}
	p := textPipeline(&fakeExplainer{err: errors.New("model overloaded")}, tr, "raw", nil)

	if _, err := p.Process(context.Background(), []byte("x"), "application/pdf", "hi-IN"); err == nil {
		t.Fatal("expected explainer failure to surface")
	}
	if tr.calls != 0 {
		t.Errorf("translator called after explainer failure")
	}
}
