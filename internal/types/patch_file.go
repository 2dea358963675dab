package types

import (
	"time"

	"github.com/google/uuid"
)

// FileType is the role a file plays inside a patch. It is recomputed
// from name and content on every save, never trusted from the client.
type FileType string

const (
	FileTypeSoul     FileType = "soul"
	FileTypeManifest FileType = "manifest"
	FileTypeUnknown  FileType = "unknown"
)

type PatchFile struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PatchID uuid.UUID `gorm:"type:uuid;not null;index" json:"patch_id"`

	Name     string   `gorm:"column:name;not null" json:"name"`
	Content  string   `gorm:"column:content;type:text" json:"content"`
	FileType FileType `gorm:"column:file_type;not null;default:'unknown'" json:"file_type"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (PatchFile) TableName() string { return "patch_file" }
