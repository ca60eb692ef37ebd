package handler

import "cleanghana/internal/report"

// ListResponse wraps a snapshot so the array can grow siblings later.
type ListResponse struct {
	Reports report.Snapshot `json:"reports"`
	Count   int             `json:"count"`
}

func NewListResponse(snap report.Snapshot) ListResponse {
	return ListResponse{Reports: snap, Count: len(snap)}
}
