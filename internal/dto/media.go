package dto

import (
	"time"

	"github.com/ahlanjobb/api/internal/model"
)

type MediaResponse struct {
	ID          uint            `json:"id"`
	Type        model.MediaType `json:"type"`
	ContentType string          `json:"contentType"`
	OriginalURL string          `json:"originalUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func ToMediaResponse(m *model.Media) MediaResponse {
	return MediaResponse{
		ID:          m.ID,
		Type:        m.Type,
		ContentType: m.ContentType,
		OriginalURL: m.OriginalURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type UpdateMediaRequest struct {
	Type        *model.MediaType `json:"type" binding:"omitempty,mediatype"`
	ContentType *string          `json:"contentType" binding:"omitempty,max=128"`
	OriginalURL *string          `json:"originalUrl" binding:"omitempty,url"`
}

// UploadResult is what the raw upload endpoint returns.
type UploadResult struct {
	Key         string `json:"key"`
	Location    string `json:"location"`
	ContentType string `json:"contentType"`
}

type MediaListResponse struct {
	Results []MediaResponse `json:"results"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
}
