package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mzurek/taskpilot/assistant"
	"github.com/mzurek/taskpilot/shared"
)

// maxAudioBytes caps transcription uploads at 25MB, the API's own limit.
const maxAudioBytes = 25 << 20

// HandleChat serves POST /chat: proxies the conversation to the
// assistant and returns its reply.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		shared.SendError(w, "Use POST method", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	if !isJSONContentType(r) {
		shared.SendError(w, "Content-Type must be application/json", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}

	var input struct {
		Messages []assistant.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.SendError(w, "Invalid JSON body", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}
	if len(input.Messages) == 0 {
		shared.SendError(w, "messages must not be empty", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}

	reply, err := h.Assistant.Chat(r.Context(), input.Messages)
	if err != nil {
		log.Printf("Chat request failed: %v", err)
		shared.SendError(w, "Chat request failed", shared.CodeChatError, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// HandleTranscribe serves POST /whisper/transcribe: accepts a multipart
// audio upload and returns the recognized text.
func (h *Handler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		shared.SendError(w, "Use POST method", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.SendError(w, "file upload is required", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}
	defer file.Close()

	text, err := h.Assistant.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		log.Printf("Transcription failed for %s: %v", header.Filename, err)
		shared.SendError(w, "Transcription failed", shared.CodeAudioError, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]string{"text": text})
}
