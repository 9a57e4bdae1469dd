package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"loanmitra/internal/translate"
)

// ========== Translation ==========

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Input) == "" {
		jsonErr(w, "Input text is required", http.StatusBadRequest)
		return
	}

	treq := translate.Request{
		Input:              req.Input,
		SourceLanguageCode: strings.TrimSpace(req.SourceLanguageCode),
		TargetLanguageCode: strings.TrimSpace(req.TargetLanguageCode),
		SpeakerGender:      req.SpeakerGender,
		Mode:               req.Mode,
		OutputScript:       req.OutputScript,
		NumeralsFormat:     req.NumeralsFormat,
	}

	// Oversized inputs go through the sentence-aware chunker. This path
	// is strict: one failed chunk fails the whole request. The threshold
	// counts characters, not bytes: Indic scripts are multi-byte and the
	// provider limit is character-based.
	if utf8.RuneCountInString(req.Input) > translate.LongThreshold {
		res, err := s.translate.TranslateLong(r.Context(), treq)
		if err != nil {
			writeTranslateError(w, err)
			return
		}
		jsonResp(w, map[string]interface{}{
			"translated_text":     res.TranslatedText,
			"chunked_translation": true,
			"chunks_count":        res.ChunkCount,
		})
		return
	}

	res, err := s.translate.Translate(r.Context(), treq)
	if err != nil {
		writeTranslateError(w, err)
		return
	}
	jsonResp(w, map[string]interface{}{
		"translated_text":      res.TranslatedText,
		"request_id":           res.RequestID,
		"source_language_code": res.SourceLanguageCode,
	})
}

// writeTranslateError maps the translation error taxonomy onto the uniform
// JSON envelope. Every variant is a 500: the request was valid, the
// service could not complete it.
func writeTranslateError(w http.ResponseWriter, err error) {
	var upstream *translate.UpstreamError
	var reqErr *translate.RequestError

	switch {
	case errors.Is(err, translate.ErrMissingAPIKey):
		jsonErr(w, err.Error(), http.StatusInternalServerError)
	case errors.As(err, &upstream):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":      upstream.Message,
			"request_id": requestIDOrUnknown(upstream.RequestID),
		})
	case errors.As(err, &reqErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "API request failed",
			"details": reqErr.Err.Error(),
		})
	default:
		jsonErr(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
	}
}

func requestIDOrUnknown(id string) string {
	if id == "" {
		return "unknown"
	}
	return id
}
