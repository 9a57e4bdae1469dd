package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"loanmitra/internal/speech"
	"loanmitra/internal/translate"
)

// ========== Speech to Text ==========

func (s *Server) handleSpeechToText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonErr(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		jsonErr(w, "No audio file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		jsonErr(w, "No selected file", http.StatusBadRequest)
		return
	}

	// Per-request language wins; the configured default is only a
	// fallback for callers that omit it.
	languageCode := r.FormValue("language_code")
	if languageCode == "" {
		languageCode = s.getDefaultLanguage()
	}

	// Stage the upload on disk; it is removed on every exit path.
	tmp, err := os.CreateTemp(s.uploadDir, "stt-*"+filepath.Ext(header.Filename))
	if err != nil {
		jsonErr(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, file)
	tmp.Close()
	if err != nil {
		jsonErr(w, "Failed to save uploaded file", http.StatusInternalServerError)
		return
	}
	if size == 0 {
		jsonErr(w, "Uploaded file is empty", http.StatusBadRequest)
		return
	}

	audio, err := os.Open(tmpPath)
	if err != nil {
		jsonErr(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer audio.Close()

	transcript, err := s.speech.Transcribe(r.Context(), header.Filename, audio, languageCode)
	if err != nil {
		log.Printf("Speech-to-text error: %v", err)
		jsonErr(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResp(w, map[string]string{
		"transcription": transcript,
		"language_code": languageCode,
	})
}

// ========== Text to Speech ==========

func (s *Server) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Inputs) == 0 || strings.TrimSpace(req.Inputs[0]) == "" {
		jsonErr(w, "Text is required", http.StatusBadRequest)
		return
	}

	text := req.Inputs[0]
	targetLang := req.TargetLanguageCode
	if targetLang == "" {
		targetLang = speech.DefaultLanguage
	}
	sourceLang := req.SourceLanguageCode
	if sourceLang == "" {
		sourceLang = s.getDefaultLanguage()
	}

	// Pre-translate when voicing in a different language than the text.
	// Best-effort: on failure the original text is voiced as-is.
	if sourceLang != targetLang {
		text, _ = s.translate.SingleWithPolicy(r.Context(), translate.Request{
			Input:              text,
			SourceLanguageCode: sourceLang,
			TargetLanguageCode: targetLang,
		}, translate.BestEffort)
	}

	audio, err := s.speech.SynthesizeAll(r.Context(), text, targetLang)
	if err != nil {
		log.Printf("Text-to-speech error: %v", err)
		jsonErr(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
