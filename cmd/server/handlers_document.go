package main

import (
	"errors"
	"io"
	"log"
	"net/http"

	"loanmitra/internal/extractor"
	"loanmitra/internal/llm"
)

// ========== Document Reader ==========

func (s *Server) handleReadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonErr(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		jsonErr(w, "No document file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		jsonErr(w, "No selected file", http.StatusBadRequest)
		return
	}

	targetLang := r.FormValue("language_code")
	if targetLang == "" {
		targetLang = "en-IN"
	}

	if !s.llm.Configured() {
		jsonErr(w, llm.ErrMissingAPIKey.Error(), http.StatusInternalServerError)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		jsonErr(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	mimeType := header.Header.Get("Content-Type")

	result, err := s.documents.Process(r.Context(), data, mimeType, targetLang)
	if err != nil {
		if errors.Is(err, extractor.ErrNoText) {
			jsonErr(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error in document reader: %v", err)
		jsonErr(w, "Failed to process document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResp(w, result)
}
