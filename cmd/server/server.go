package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"loanmitra/internal/chat"
	"loanmitra/internal/document"
	"loanmitra/internal/llm"
	"loanmitra/internal/speech"
	"loanmitra/internal/translate"
)

// maxUploadBytes caps multipart uploads (documents and audio).
const maxUploadBytes = 10 << 20

// Server holds all shared state.
type Server struct {
	sessions  *chat.Store
	llm       *llm.Client
	translate *translate.Client
	speech    *speech.Client
	documents *document.Pipeline

	uploadDir string

	// Default language for speech requests that omit language_code.
	// Requests that carry their own code never consult this.
	langMu          sync.RWMutex
	defaultLanguage string
}

func (s *Server) getDefaultLanguage() string {
	s.langMu.RLock()
	defer s.langMu.RUnlock()
	return s.defaultLanguage
}

func (s *Server) setDefaultLanguage(code string) {
	s.langMu.Lock()
	defer s.langMu.Unlock()
	s.defaultLanguage = code
}

// ----- Request / Response types -----

type setLanguageRequest struct {
	LanguageCode string `json:"language_code"`
}

type chatRequest struct {
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	LanguageCode string `json:"language_code"`
}

type translateRequest struct {
	Input              string `json:"input"`
	SourceLanguageCode string `json:"source_language_code"`
	TargetLanguageCode string `json:"target_language_code"`
	SpeakerGender      string `json:"speaker_gender"`
	Mode               string `json:"mode"`
	OutputScript       string `json:"output_script"`
	NumeralsFormat     string `json:"numerals_format"`
}

type ttsRequest struct {
	Inputs             []string `json:"inputs"`
	TargetLanguageCode string   `json:"target_language_code"`
	SourceLanguageCode string   `json:"source_language_code"`
}

// ========== Middleware ==========

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ========== Helpers ==========

func jsonResp(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
