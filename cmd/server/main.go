package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"loanmitra/internal/chat"
	"loanmitra/internal/document"
	"loanmitra/internal/extractor"
	"loanmitra/internal/llm"
	"loanmitra/internal/speech"
	"loanmitra/internal/translate"

	"github.com/joho/godotenv"
)

const (
	maxSessions = 1000
	sessionTTL  = 30 * time.Minute
)

func main() {
	_ = godotenv.Load()

	sarvamKey := os.Getenv("SARVAM_API_KEY")
	groqKey := os.Getenv("GROQ_API_KEY")

	// Missing keys are logged, not fatal: each feature reports an
	// actionable configuration error when first used.
	if sarvamKey == "" {
		log.Printf("Warning: SARVAM_API_KEY is missing. Translation and speech features will return errors until it is set.")
	}
	if groqKey == "" {
		log.Printf("Warning: GROQ_API_KEY is missing. Chat and document explanation features will return errors until it is set.")
	}

	tesseractOk := extractor.DetectTesseract()
	switch {
	case tesseractOk && extractor.DetectPdftoppm():
		log.Printf("OCR ready: Tesseract + Poppler (primary), Sarvam=%v (fallback)", sarvamKey != "")
	case tesseractOk:
		log.Printf("OCR WARNING: Tesseract found but Poppler (pdftoppm) is missing — scanned PDFs need Sarvam (key configured: %v)", sarvamKey != "")
	case sarvamKey != "":
		log.Printf("OCR ready: Sarvam Document Intelligence (no local tesseract)")
	default:
		log.Printf("OCR WARNING: no OCR tooling available; image and scanned-PDF uploads will fail")
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload dir: %v", err)
	}

	llmClient := llm.New(groqKey)
	translateClient := translate.New(sarvamKey)

	srv := &Server{
		sessions:  chat.NewStore(maxSessions, sessionTTL),
		llm:       llmClient,
		translate: translateClient,
		speech:    speech.New(sarvamKey),
		documents: &document.Pipeline{
			OCR:        extractor.Config{TesseractOk: tesseractOk, SarvamKey: sarvamKey},
			Explainer:  llmClient,
			Translator: translateClient,
		},
		uploadDir:       uploadDir,
		defaultLanguage: "en-IN",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/set-language", srv.handleSetLanguage)
	mux.HandleFunc("/chat", srv.handleChat)
	mux.HandleFunc("/translate", srv.handleTranslate)
	mux.HandleFunc("/read-document", srv.handleReadDocument)
	mux.HandleFunc("/speech-to-text", srv.handleSpeechToText)
	mux.HandleFunc("/text-to-speech", srv.handleTextToSpeech)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	log.Printf("loanmitra server starting on http://localhost:%s", port)
	if err := http.ListenAndServe(":"+port, corsMiddleware(mux)); err != nil {
		log.Fatal(err)
	}
}
