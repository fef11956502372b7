package handlers

import "github.com/nfrund/lanstream/internal/domain"

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HistoryResponse carries one page of history entries plus the total count of
// entries matching the filter, so clients can paginate without a second call.
type HistoryResponse struct {
	Messages []domain.Message `json:"messages"`
	Total    int              `json:"total"`
}

// UploadResponse returns the reference token for a stored blob. The token
// goes into the content field of a subsequent file envelope.
type UploadResponse struct {
	Content      string `json:"content"`
	OriginalName string `json:"originalName"`
	SizeBytes    int64  `json:"sizeBytes"`
}

// ServerInfoResponse lists the addresses LAN peers can reach this relay on.
type ServerInfoResponse struct {
	Addresses []string `json:"addresses"`
	Port      string   `json:"port"`
}
