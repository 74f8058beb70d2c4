package model

import "gorm.io/gorm"

type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

func (t MediaType) IsValid() bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

type Media struct {
	gorm.Model
	Type        MediaType `gorm:"column:type;type:varchar(16);not null"`
	ContentType string    `gorm:"column:content_type;not null"`
	OriginalURL string    `gorm:"column:original_url;not null"`
}

func (Media) TableName() string {
	return "media"
}
