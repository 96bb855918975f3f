package models

import "time"

// UploadResponse is returned after a settings or Q&A file is loaded
type UploadResponse struct {
	Message   string `json:"message"`
	FileName  string `json:"file_name,omitempty"`
	Questions int    `json:"questions"`
	Cached    int    `json:"cached"`
}

// DatasetStatus describes the loaded question table
type DatasetStatus struct {
	Source    string `json:"source"`
	Questions int    `json:"questions"`
	Sectors   int    `json:"sectors"`
	Aliases   int    `json:"aliases"`
	Malformed int    `json:"malformed"`
}

// OptionsResponse lists everything a reviewer can select in a filter
type OptionsResponse struct {
	Sectors     []string `json:"sectors"`
	SupplyChain []string `json:"supply_chain"`
	IFRSS2      []string `json:"ifrs_s2"`
	AFI         []string `json:"afi"`
	ModuleName  []string `json:"module_name"`
}

// SessionSummary is returned by the session endpoints
type SessionSummary struct {
	ID          string         `json:"id"`
	Settings    FilterSettings `json:"settings"`
	Filtered    bool           `json:"filtered"`
	Questions   int            `json:"questions"`
	Cached      int            `json:"cached"`
	Answered    int            `json:"answered"`
	CurrentPage int            `json:"current_page"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FilterResponse is returned after a filter is applied
type FilterResponse struct {
	Questions   int                 `json:"questions"`
	Cached      int                 `json:"cached"`
	Unresolved  []string            `json:"unresolved,omitempty"`
	Suggestions map[string][]string `json:"suggestions,omitempty"`
	Settings    FilterSettings      `json:"settings"`
}

// PageItem is one question on a review page
type PageItem struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Sector     string `json:"sector"`
	ModuleName string `json:"module_name"`
	Answer     string `json:"answer"`
}

// PageResponse is one page of the filtered view
type PageResponse struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	PageSize   int        `json:"page_size"`
	Total      int        `json:"total"`
	Items      []PageItem `json:"items"`
}

// AnswerRequest for PUT /answers/{questionID}
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// SuggestionResponse carries a drafted answer; it is not stored
type SuggestionResponse struct {
	QuestionID string `json:"question_id"`
	Suggestion string `json:"suggestion"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// ChatRequest for POST /chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse returns the reply and the retained history
type ChatResponse struct {
	Reply   string        `json:"reply"`
	History []ChatMessage `json:"history"`
	Limit   int           `json:"limit"`
}

// LLMConfig for the /config/llm endpoint. The API key is never echoed.
type LLMConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	Temperature float64 `json:"temperature"`
	HasAPIKey   bool    `json:"has_api_key"`
	Available   bool    `json:"available"`
}

// Snapshot describes a stored Q&A file
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SessionID string    `json:"session_id"`
	Questions int       `json:"questions"`
	Answered  int       `json:"answered"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotRequest for POST /snapshots
type SnapshotRequest struct {
	Name string `json:"name"`
}
