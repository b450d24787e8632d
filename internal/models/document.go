package models

import "time"

// DocumentLink points at a rendered invoice stored in object storage
type DocumentLink struct {
	URL        string    `json:"pdf_url"`
	ObjectName string    `json:"object_name"`
	ExpiresAt  time.Time `json:"expires_at"`
}
