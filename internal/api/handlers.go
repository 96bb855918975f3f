package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"rpgpt/internal/export"
	"rpgpt/internal/llm"
	"rpgpt/internal/models"
	"rpgpt/internal/service"
)

const MaxFileSize = 100 * 1024 * 1024 // 100MB

type Handler struct {
	Workflow       *service.Workflow
	Exporter       *export.Exporter
	MaxUploadBytes int64
	Logger         *zap.Logger
}

func NewHandler(workflow *service.Workflow, exporter *export.Exporter, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = MaxFileSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Workflow:       workflow,
		Exporter:       exporter,
		MaxUploadBytes: maxUploadBytes,
		Logger:         logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/status", h.GetStatus)

	r.Get("/api/options", h.GetOptions)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)

			// Filtering
			r.Post("/filter", h.ApplyFilter)
			r.Get("/settings", h.DownloadSettings)
			r.Post("/settings", h.UploadSettings)
			r.Post("/settings/reset", h.ResetSettings)

			// Review
			r.Get("/questions", h.GetQuestions)
			r.Put("/answers/{questionID}", h.SetAnswer)
			r.Post("/answers/{questionID}/suggest", h.SuggestAnswer)
			r.Post("/answers/reset", h.ResetAnswers)

			// Save / Load
			r.Get("/qa", h.DownloadQA)
			r.Post("/qa", h.UploadQA)
			r.Get("/qa/export", h.ExportQA)

			// Chat
			r.Get("/chat", h.GetChat)
			r.Post("/chat", h.Chat)
			r.Delete("/chat", h.ClearChat)

			// Snapshots
			r.Post("/snapshots", h.SaveSnapshot)
			r.Post("/snapshots/{snapshotID}/restore", h.RestoreSnapshot)
		})
	})

	r.Get("/api/snapshots", h.ListSnapshots)
	r.Delete("/api/snapshots/{snapshotID}", h.DeleteSnapshot)

	r.Get("/config/llm", h.GetLLMConfig)
	r.Post("/config/llm", h.SaveLLMConfig)
}

// ============================================================================
// Health & Status
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, h.Workflow.Status(), http.StatusOK)
}

func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, h.Workflow.Options(), http.StatusOK)
}

// ============================================================================
// Sessions
// ============================================================================

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, h.Workflow.CreateSession(), http.StatusCreated)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Workflow.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, summary, http.StatusOK)
}

// DeleteSession logs a reviewer out and drops all their state
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflow.EndSession(chi.URLParam(r, "sessionID")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Filtering
// ============================================================================

func (h *Handler) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	var settings models.FilterSettings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)).Decode(&settings); err != nil {
		BadRequest(w, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	resp, err := h.Workflow.ApplyFilter(chi.URLParam(r, "sessionID"), settings)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Workflow.ResetSettings(chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, settings, http.StatusOK)
}

func (h *Handler) DownloadSettings(w http.ResponseWriter, r *http.Request) {
	var buf strings.Builder
	if err := h.Workflow.SettingsFile(chi.URLParam(r, "sessionID"), &buf); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="settings.json"`)
	io.WriteString(w, buf.String())
}

func (h *Handler) UploadSettings(w http.ResponseWriter, r *http.Request) {
	body, name, err := h.readUpload(w, r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	defer body.Close()

	resp, err := h.Workflow.LoadSettings(chi.URLParam(r, "sessionID"), body)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	h.Logger.Info("settings loaded", zap.String("file", name))
	WriteJSON(w, resp, http.StatusOK)
}

// ============================================================================
// Review
// ============================================================================

func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	page := -1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			BadRequest(w, "page must be a non-negative integer")
			return
		}
		page = n
	}

	resp, err := h.Workflow.Page(chi.URLParam(r, "sessionID"), page)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	questionID := chi.URLParam(r, "questionID")
	if err := h.Workflow.SetAnswer(sessionID, questionID, req.Answer); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]interface{}{
		"success":     true,
		"question_id": questionID,
	}, http.StatusOK)
}

func (h *Handler) SuggestAnswer(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Workflow.Suggest(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "questionID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) ResetAnswers(w http.ResponseWriter, r *http.Request) {
	n, err := h.Workflow.ResetAnswers(chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]interface{}{
		"success": true,
		"message": "Answers reset successfully",
		"entries": n,
	}, http.StatusOK)
}

// ============================================================================
// Save / Load
// ============================================================================

func (h *Handler) DownloadQA(w http.ResponseWriter, r *http.Request) {
	var buf strings.Builder
	if err := h.Workflow.WriteQAFile(chi.URLParam(r, "sessionID"), &buf); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="qa_data.json"`)
	io.WriteString(w, buf.String())
}

func (h *Handler) UploadQA(w http.ResponseWriter, r *http.Request) {
	body, name, err := h.readUpload(w, r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	defer body.Close()

	resp, err := h.Workflow.LoadQA(chi.URLParam(r, "sessionID"), body)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	resp.FileName = name
	WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) ExportQA(w http.ResponseWriter, r *http.Request) {
	settings, entries, err := h.Workflow.ExportData(chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	f, err := h.Exporter.Export(settings, entries)
	if err != nil {
		WriteError(w, fmt.Errorf("failed to build workbook: %w", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="qa_data.xlsx"`)
	if err := f.Write(w); err != nil {
		h.Logger.Error("failed to write workbook", zap.Error(err))
	}
}

// readUpload returns the uploaded file of a multipart form (field "file")
// or, for any other content type, the request body itself
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, "", nil
	}

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", errors.New("File too large")
		}
		return nil, "", fmt.Errorf("Invalid upload: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errors.New("No file uploaded")
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".json" {
		file.Close()
		return nil, "", errors.New("Only JSON files are allowed")
	}
	return file, header.Filename, nil
}

// ============================================================================
// Chat
// ============================================================================

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	interactions, err := h.Workflow.ChatHistory(chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	type interaction struct {
		User      models.ChatMessage  `json:"user"`
		Assistant *models.ChatMessage `json:"assistant,omitempty"`
	}
	out := make([]interaction, 0, len(interactions))
	for _, pair := range interactions {
		item := interaction{User: pair[0]}
		if pair[1].Role != "" {
			reply := pair[1]
			item.Assistant = &reply
		}
		out = append(out, item)
	}
	WriteJSON(w, map[string]interface{}{"interactions": out}, http.StatusOK)
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		BadRequest(w, "message is required")
		return
	}

	resp, err := h.Workflow.Chat(r.Context(), chi.URLParam(r, "sessionID"), req.Message)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflow.ClearChat(chi.URLParam(r, "sessionID")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Snapshots
// ============================================================================

func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req models.SnapshotRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			BadRequest(w, "Invalid JSON")
			return
		}
	}

	snap, err := h.Workflow.SaveSnapshot(r.Context(), chi.URLParam(r, "sessionID"), strings.TrimSpace(req.Name))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, snap, http.StatusCreated)
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Workflow.Snapshots(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]interface{}{"snapshots": snaps}, http.StatusOK)
}

func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Workflow.RestoreSnapshot(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "snapshotID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflow.DeleteSnapshot(r.Context(), chi.URLParam(r, "snapshotID")); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// LLM Config
// ============================================================================

func (h *Handler) GetLLMConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, h.Workflow.Assistant().Info(), http.StatusOK)
}

func (h *Handler) SaveLLMConfig(w http.ResponseWriter, r *http.Request) {
	var config models.LLMConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		BadRequest(w, "Invalid JSON")
		return
	}

	err := h.Workflow.Assistant().Configure(r.Context(), llm.ProviderConfig{
		Provider:    config.Provider,
		Model:       config.Model,
		BaseURL:     config.BaseURL,
		APIKey:      config.APIKey,
		Temperature: config.Temperature,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, map[string]interface{}{
		"success": true,
		"message": "LLM configuration saved successfully",
		"config":  h.Workflow.Assistant().Info(),
	}, http.StatusOK)
}
