package models

import "time"

// ArchiveMetadata is a lightweight description of an archive file returned by
// storage list operations.
type ArchiveMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
