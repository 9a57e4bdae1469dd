package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"loanmitra/internal/llm"
	"loanmitra/internal/loan"

	"github.com/google/uuid"
)

// ========== Language Selection ==========

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req setLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	code := strings.TrimSpace(req.LanguageCode)
	if code == "" {
		jsonErr(w, "Language code is required", http.StatusBadRequest)
		return
	}

	s.setDefaultLanguage(code)
	log.Printf("Default language set to: %s", code)
	jsonResp(w, map[string]string{"message": "Language changed to " + code})
}

// ========== Chat ==========

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userMessage := strings.TrimSpace(req.Message)
	if userMessage == "" {
		jsonErr(w, "User message is required", http.StatusBadRequest)
		return
	}

	if !s.llm.Configured() {
		jsonErr(w, llm.ErrMissingAPIKey.Error(), http.StatusInternalServerError)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	languageCode := req.LanguageCode
	if languageCode == "" {
		languageCode = "en-IN"
	}

	systemPrompt := llm.SystemPrompt(llm.LanguageName(languageCode))
	window := s.sessions.Begin(sessionID, systemPrompt, userMessage)

	messages := make([]llm.Message, len(window))
	for i, m := range window {
		messages[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	raw, err := s.llm.ChatJSON(r.Context(), messages)
	if err != nil {
		jsonErr(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	reply := llm.ParseReply(raw)
	s.sessions.Commit(sessionID, reply.FullText)

	// Best-effort loan analysis from the original user message, not the
	// model output. Omitted entirely on any partial match.
	resp := map[string]interface{}{
		"full_text":   reply.FullText,
		"spoken_text": reply.SpokenText,
		"session_id":  sessionID,
	}
	if analysis, ok := loan.Analyze(userMessage); ok {
		resp["analysis"] = analysis
	}

	jsonResp(w, resp)
}
