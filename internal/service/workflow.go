package service

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"go.uber.org/zap"

	"rpgpt/internal/models"
	"rpgpt/internal/state"
)

const (
	DefaultPageSize       = 10
	DefaultMaxAnswerChars = 4000
)

// WorkflowConfig holds the review limits
type WorkflowConfig struct {
	PageSize       int
	MaxAnswerChars int
	ContextLimit   int
	// Source names where the dataset came from (csv, postgres).
	Source string
}

// SnapshotStore persists named Q&A files
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, name, sessionID string, file models.QAFile) (models.Snapshot, error)
	LoadSnapshot(ctx context.Context, id string) (models.QAFile, error)
	ListSnapshots(ctx context.Context) ([]models.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// Workflow drives the per-session review: filtering, paging, answering,
// saving and loading. Each call locks the session it works on.
type Workflow struct {
	engine    *FilterEngine
	sessions  *state.SessionManager
	assistant *AssistantService
	snapshots SnapshotStore
	chat      *ChatContext
	fuzzy     *FuzzyMatcher
	cfg       WorkflowConfig
	logger    *zap.Logger
}

// NewWorkflow wires the review workflow. snapshots may be nil to disable
// snapshot storage and assistant may be nil to disable LLM features.
func NewWorkflow(engine *FilterEngine, sessions *state.SessionManager, assistant *AssistantService, snapshots SnapshotStore, cfg WorkflowConfig, logger *zap.Logger) *Workflow {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxAnswerChars <= 0 {
		cfg.MaxAnswerChars = DefaultMaxAnswerChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if assistant == nil {
		assistant = NewStaticAssistantService(nil)
	}
	return &Workflow{
		engine:    engine,
		sessions:  sessions,
		assistant: assistant,
		snapshots: snapshots,
		chat:      NewChatContext(cfg.ContextLimit),
		fuzzy:     NewFuzzyMatcher(),
		cfg:       cfg,
		logger:    logger,
	}
}

// Engine returns the filter engine
func (w *Workflow) Engine() *FilterEngine {
	return w.engine
}

// Assistant returns the LLM assistant holder
func (w *Workflow) Assistant() *AssistantService {
	return w.assistant
}

// Config returns the effective review limits
func (w *Workflow) Config() WorkflowConfig {
	return w.cfg
}

// Status describes the loaded tables
func (w *Workflow) Status() models.DatasetStatus {
	return models.DatasetStatus{
		Source:    w.cfg.Source,
		Questions: w.engine.Dataset().Len(),
		Sectors:   len(w.engine.Sectors().Names()),
		Aliases:   w.engine.Aliases().Len(),
		Malformed: len(w.engine.Dataset().Malformed()),
	}
}

// ============================================================================
// Sessions
// ============================================================================

// CreateSession starts a review with nothing filtered yet
func (w *Workflow) CreateSession() models.SessionSummary {
	s := w.sessions.Create()
	w.logger.Info("session created", zap.String("session", s.ID))

	s.Lock()
	defer s.Unlock()
	return summarize(s)
}

// Session returns a summary of a session
func (w *Workflow) Session(id string) (models.SessionSummary, error) {
	s, err := w.session(id)
	if err != nil {
		return models.SessionSummary{}, err
	}
	s.Lock()
	defer s.Unlock()
	return summarize(s), nil
}

// EndSession drops a session and everything it holds
func (w *Workflow) EndSession(id string) error {
	if !w.sessions.Delete(id) {
		return sessionNotFound(id)
	}
	w.logger.Info("session ended", zap.String("session", id))
	return nil
}

func (w *Workflow) session(id string) (*state.Session, error) {
	s, ok := w.sessions.Get(id)
	if !ok {
		return nil, sessionNotFound(id)
	}
	return s, nil
}

func sessionNotFound(id string) error {
	return NewError(SessionNotFound, fmt.Sprintf("session %q not found", id), nil)
}

func summarize(s *state.Session) models.SessionSummary {
	return models.SessionSummary{
		ID:          s.ID,
		Settings:    s.Settings.Clone(),
		Filtered:    s.Filtered != nil,
		Questions:   len(s.Filtered),
		Cached:      s.Cache.Len(),
		Answered:    s.Cache.Answered(),
		CurrentPage: s.CurrentPage,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ============================================================================
// Filtering
// ============================================================================

// Options lists the selectable sector names and categorical values
func (w *Workflow) Options() models.OptionsResponse {
	ds := w.engine.Dataset()
	return models.OptionsResponse{
		Sectors:     w.engine.Sectors().Names(),
		SupplyChain: ds.DistinctTokens(ColSupplyChainOnly),
		IFRSS2:      ds.DistinctTokens(ColIFRSS2),
		AFI:         ds.DistinctTokens(ColAFI),
		ModuleName:  ds.DistinctTokens(ColModuleName),
	}
}

// ApplyFilter filters the dataset, rebuilds the session cache from the
// result and stores settings. Answers of questions still in view survive.
func (w *Workflow) ApplyFilter(id string, settings models.FilterSettings) (models.FilterResponse, error) {
	s, err := w.session(id)
	if err != nil {
		return models.FilterResponse{}, err
	}
	s.Lock()
	defer s.Unlock()
	return w.applyLocked(s, settings), nil
}

func (w *Workflow) applyLocked(s *state.Session, settings models.FilterSettings) models.FilterResponse {
	res := w.engine.ApplyDetailed(settings)
	previous := s.Cache.Len()

	s.Settings = settings.Clone()
	s.Filtered = res.Rows
	s.Cache = Reconcile(res.Rows, s.Cache)
	s.CurrentPage = 0
	s.Touch()

	resp := models.FilterResponse{
		Questions: len(res.Rows),
		Cached:    s.Cache.Len(),
		Settings:  s.Settings.Clone(),
	}
	if len(res.Unresolved) > 0 {
		resp.Unresolved = res.Unresolved
		resp.Suggestions = w.suggestSectors(res.Unresolved)
		w.logger.Warn("sector names not in sector table",
			zap.String("session", s.ID),
			zap.String("code", string(LookupMiss)),
			zap.Strings("names", res.Unresolved),
		)
	}
	w.logger.Info("filter applied",
		zap.String("session", s.ID),
		zap.Strings("codes", res.Codes.Sorted()),
		zap.Int("questions", len(res.Rows)),
		zap.Int("cache_before", previous),
		zap.Int("cache_after", s.Cache.Len()),
	)
	return resp
}

func (w *Workflow) suggestSectors(names []string) map[string][]string {
	candidates := w.engine.Sectors().Names()
	out := make(map[string][]string, len(names))
	for _, name := range names {
		var matches []string
		for _, m := range w.fuzzy.Suggest(name, candidates, 3) {
			matches = append(matches, m.Name)
		}
		if len(matches) > 0 {
			out[name] = matches
		}
	}
	return out
}

// ResetSettings sets the default selection. The filtered view and cache
// are left as they are until the next ApplyFilter.
func (w *Workflow) ResetSettings(id string) (models.FilterSettings, error) {
	s, err := w.session(id)
	if err != nil {
		return models.FilterSettings{}, err
	}
	s.Lock()
	defer s.Unlock()

	s.Settings = w.engine.Defaults()
	s.Touch()
	return s.Settings.Clone(), nil
}

// LoadSettings reads a settings file and applies it
func (w *Workflow) LoadSettings(id string, r io.Reader) (models.FilterResponse, error) {
	settings, err := DecodeSettings(r)
	if err != nil {
		w.logger.Warn("settings file rejected", zap.String("session", id), zap.Error(err))
		return models.FilterResponse{}, err
	}
	return w.ApplyFilter(id, settings)
}

// SettingsFile writes the session's settings with every list explicit
func (w *Workflow) SettingsFile(id string, out io.Writer) error {
	s, err := w.session(id)
	if err != nil {
		return err
	}
	s.Lock()
	settings := w.engine.Effective(s.Settings)
	s.Unlock()
	return EncodeSettings(out, settings)
}

// ============================================================================
// Q&A files
// ============================================================================

// QAFile returns the save file for a session
func (w *Workflow) QAFile(id string) (models.QAFile, error) {
	s, err := w.session(id)
	if err != nil {
		return models.QAFile{}, err
	}
	s.Lock()
	defer s.Unlock()
	return BuildQAFile(w.engine.Effective(s.Settings), s.Cache), nil
}

// WriteQAFile encodes the save file for a session
func (w *Workflow) WriteQAFile(id string, out io.Writer) error {
	file, err := w.QAFile(id)
	if err != nil {
		return err
	}
	return EncodeQAFile(out, file)
}

// ExportData returns the effective settings and cached entries for an
// export
func (w *Workflow) ExportData(id string) (models.FilterSettings, []models.QACacheEntry, error) {
	s, err := w.session(id)
	if err != nil {
		return models.FilterSettings{}, nil, err
	}
	s.Lock()
	defer s.Unlock()
	return w.engine.Effective(s.Settings), s.Cache.Entries(), nil
}

// LoadQA reads a Q&A file, replaces the session cache with its records and
// rebuilds the filtered view from its settings
func (w *Workflow) LoadQA(id string, r io.Reader) (models.UploadResponse, error) {
	file, err := DecodeQAFile(r)
	if err != nil {
		w.logger.Warn("Q&A file rejected", zap.String("session", id), zap.Error(err))
		return models.UploadResponse{}, err
	}
	return w.installQA(id, file)
}

func (w *Workflow) installQA(id string, file models.QAFile) (models.UploadResponse, error) {
	s, err := w.session(id)
	if err != nil {
		return models.UploadResponse{}, err
	}
	s.Lock()
	defer s.Unlock()

	s.Settings = file.Settings.Clone()
	s.Cache = ReplaceFromFile(file)
	s.Filtered = w.engine.Apply(file.Settings)
	s.CurrentPage = 0
	s.Touch()

	w.logger.Info("Q&A loaded",
		zap.String("session", s.ID),
		zap.Int("records", len(file.QA)),
		zap.Int("questions", len(s.Filtered)),
	)
	return models.UploadResponse{
		Message:   "Q&A data loaded successfully",
		Questions: len(s.Filtered),
		Cached:    s.Cache.Len(),
	}, nil
}

// ============================================================================
// Review
// ============================================================================

// Page returns one page of the filtered view. A negative page means the
// session's current page; out-of-range pages are clamped. Questions on the
// page that are not cached yet get an empty answer entry.
func (w *Workflow) Page(id string, page int) (models.PageResponse, error) {
	s, err := w.session(id)
	if err != nil {
		return models.PageResponse{}, err
	}
	s.Lock()
	defer s.Unlock()

	size := w.cfg.PageSize
	total := len(s.Filtered)
	pages := (total + size - 1) / size

	if page < 0 {
		page = s.CurrentPage
	}
	if page > pages-1 {
		page = pages - 1
	}
	if page < 0 {
		page = 0
	}
	s.CurrentPage = page

	start := page * size
	end := start + size
	if end > total {
		end = total
	}
	rows := s.Filtered[start:end]
	if EnsureEntries(s.Cache, rows) > 0 {
		s.Touch()
	}

	resp := models.PageResponse{
		Page:       page,
		TotalPages: pages,
		PageSize:   size,
		Total:      total,
		Items:      make([]models.PageItem, 0, len(rows)),
	}
	for _, row := range rows {
		entry, _ := s.Cache.Get(row.QuestionID)
		resp.Items = append(resp.Items, models.PageItem{
			QuestionID: row.QuestionID,
			Question:   row.QuestionText,
			Sector:     row.SectorExpr,
			ModuleName: row.ModuleName.Token(),
			Answer:     entry.Answer,
		})
	}
	return resp, nil
}

// SetAnswer stores an answer. The question must be cached or in view.
func (w *Workflow) SetAnswer(id, questionID, answer string) error {
	if n := utf8.RuneCountInString(answer); n > w.cfg.MaxAnswerChars {
		return NewError(AnswerTooLong,
			fmt.Sprintf("answer has %d characters, the limit is %d", n, w.cfg.MaxAnswerChars), nil).
			WithDetails(map[string]interface{}{"length": n, "limit": w.cfg.MaxAnswerChars})
	}

	s, err := w.session(id)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()

	if !s.Cache.Has(questionID) {
		row, ok := filteredRow(s, questionID)
		if !ok {
			return questionNotFound(questionID)
		}
		EnsureEntries(s.Cache, []models.QuestionRow{row})
	}
	s.Cache.SetAnswer(questionID, answer)
	s.Touch()
	return nil
}

// ResetAnswers clears every answer of the session and returns how many
// entries were kept
func (w *Workflow) ResetAnswers(id string) (int, error) {
	s, err := w.session(id)
	if err != nil {
		return 0, err
	}
	s.Lock()
	defer s.Unlock()

	ResetAnswers(s.Cache)
	s.Touch()
	return s.Cache.Len(), nil
}

func filteredRow(s *state.Session, questionID string) (models.QuestionRow, bool) {
	for _, r := range s.Filtered {
		if r.QuestionID == questionID {
			return r, true
		}
	}
	return models.QuestionRow{}, false
}

func questionNotFound(id string) error {
	return NewError(QuestionNotFound, fmt.Sprintf("question %q is not in this review", id), nil)
}

// ============================================================================
// Assistant
// ============================================================================

// Suggest drafts an answer for a question. The suggestion is returned, not
// stored.
func (w *Workflow) Suggest(ctx context.Context, id, questionID string) (models.SuggestionResponse, error) {
	s, err := w.session(id)
	if err != nil {
		return models.SuggestionResponse{}, err
	}

	s.Lock()
	prompt, ok := promptFor(s, questionID)
	s.Unlock()
	if !ok {
		return models.SuggestionResponse{}, questionNotFound(questionID)
	}

	suggestion, err := w.assistant.Suggest(ctx, prompt)
	if err != nil {
		w.logger.Warn("answer suggestion failed",
			zap.String("session", id),
			zap.String("question", questionID),
			zap.Error(err),
		)
		return models.SuggestionResponse{}, err
	}

	info := w.assistant.Info()
	return models.SuggestionResponse{
		QuestionID: questionID,
		Suggestion: suggestion,
		Provider:   info.Provider,
		Model:      info.Model,
	}, nil
}

func promptFor(s *state.Session, questionID string) (models.QuestionPrompt, bool) {
	p := models.QuestionPrompt{QuestionID: questionID, Sectors: s.Settings.Sectors}
	entry, cached := s.Cache.Get(questionID)
	row, inView := filteredRow(s, questionID)
	if !cached && !inView {
		return p, false
	}
	if inView {
		p.Question = row.QuestionText
		p.Sector = row.SectorExpr
		p.ModuleName = row.ModuleName.Token()
	} else {
		p.Question = entry.QuestionText
		p.Sector = entry.Sector
		p.ModuleName = entry.ModuleName
	}
	p.Draft = entry.Answer
	return p, true
}

// Chat sends a message with the recent history and records the reply
func (w *Workflow) Chat(ctx context.Context, id, message string) (models.ChatResponse, error) {
	if n := utf8.RuneCountInString(message); n > w.cfg.MaxAnswerChars {
		return models.ChatResponse{}, NewError(AnswerTooLong,
			fmt.Sprintf("message has %d characters, the limit is %d", n, w.cfg.MaxAnswerChars), nil)
	}
	s, err := w.session(id)
	if err != nil {
		return models.ChatResponse{}, err
	}

	s.Lock()
	s.Chat = append(s.Chat, models.NewChatMessage(models.RoleUser, message))
	window := w.chat.Window(s.Chat)
	s.Touch()
	s.Unlock()

	reply, err := w.assistant.Chat(ctx, window)
	if err != nil {
		w.logger.Warn("chat failed", zap.String("session", id), zap.Error(err))
		return models.ChatResponse{}, err
	}

	s.Lock()
	defer s.Unlock()
	if reply != "" {
		s.Chat = append(s.Chat, models.NewChatMessage(models.RoleAssistant, reply))
	}
	s.Chat = w.chat.Truncate(s.Chat)
	s.Touch()
	return models.ChatResponse{
		Reply:   reply,
		History: append([]models.ChatMessage(nil), s.Chat...),
		Limit:   w.chat.Limit(),
	}, nil
}

// ChatHistory returns the stored conversation grouped into interactions
func (w *Workflow) ChatHistory(id string) ([][2]models.ChatMessage, error) {
	s, err := w.session(id)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()
	return w.chat.Interactions(s.Chat), nil
}

// ClearChat forgets the conversation
func (w *Workflow) ClearChat(id string) error {
	s, err := w.session(id)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	s.Chat = nil
	s.Touch()
	return nil
}

// ============================================================================
// Snapshots
// ============================================================================

func (w *Workflow) store() (SnapshotStore, error) {
	if w.snapshots == nil {
		return nil, NewError(StoreUnavailable, "snapshot storage is disabled", nil)
	}
	return w.snapshots, nil
}

// SaveSnapshot stores the session's Q&A file under a name
func (w *Workflow) SaveSnapshot(ctx context.Context, id, name string) (models.Snapshot, error) {
	st, err := w.store()
	if err != nil {
		return models.Snapshot{}, err
	}
	file, err := w.QAFile(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	if name == "" {
		name = "qa_data"
	}
	snap, err := st.SaveSnapshot(ctx, name, id, file)
	if err != nil {
		return models.Snapshot{}, err
	}
	w.logger.Info("snapshot saved",
		zap.String("session", id),
		zap.String("snapshot", snap.ID),
		zap.Int("records", snap.Questions),
	)
	return snap, nil
}

// Snapshots lists stored snapshots, newest first
func (w *Workflow) Snapshots(ctx context.Context) ([]models.Snapshot, error) {
	st, err := w.store()
	if err != nil {
		return nil, err
	}
	return st.ListSnapshots(ctx)
}

// RestoreSnapshot loads a stored snapshot into a session like LoadQA
func (w *Workflow) RestoreSnapshot(ctx context.Context, id, snapshotID string) (models.UploadResponse, error) {
	st, err := w.store()
	if err != nil {
		return models.UploadResponse{}, err
	}
	if _, err := w.session(id); err != nil {
		return models.UploadResponse{}, err
	}
	file, err := st.LoadSnapshot(ctx, snapshotID)
	if err != nil {
		return models.UploadResponse{}, err
	}
	return w.installQA(id, file)
}

// DeleteSnapshot removes a stored snapshot
func (w *Workflow) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	st, err := w.store()
	if err != nil {
		return err
	}
	return st.DeleteSnapshot(ctx, snapshotID)
}
