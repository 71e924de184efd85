package models

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	SessionID    string     `json:"session_id"`
	Reply        string     `json:"reply"`
	Tool         string     `json:"tool"`
	ResponseTime int        `json:"response_time_ms"`
	History      []ChatTurn `json:"history,omitempty"`
}

type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	History   []ChatTurn `json:"history"`
}
