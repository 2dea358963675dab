package types

import (
	"time"

	"github.com/google/uuid"
)

// Patch is a named bundle of SOUL source and manifest files shared by
// one author, together with the ratings other users gave it.
type Patch struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	NoViews     int64     `gorm:"column:no_views;not null;default:0" json:"no_views"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      *User     `gorm:"foreignKey:AuthorID;references:ID" json:"author,omitempty"`

	// Files do not carry a live back-pointer to the patch, only PatchID.
	Files   []*PatchFile   `gorm:"foreignKey:PatchID;references:ID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
	Ratings []*PatchRating `gorm:"foreignKey:PatchID;references:ID;constraint:OnDelete:CASCADE" json:"ratings,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Patch) TableName() string { return "patch" }

// FilesOfType filters the loaded file set by role, preserving order.
func (p *Patch) FilesOfType(ft FileType) []*PatchFile {
	var out []*PatchFile
	for _, f := range p.Files {
		if f.FileType == ft {
			out = append(out, f)
		}
	}
	return out
}

// AverageRating returns the arithmetic mean of the loaded ratings. The
// second return is false when the patch has no ratings at all, which is
// not the same thing as an average of zero.
func (p *Patch) AverageRating() (float64, bool) {
	if len(p.Ratings) == 0 {
		return 0, false
	}
	var sum int
	for _, r := range p.Ratings {
		sum += r.Stars
	}
	return float64(sum) / float64(len(p.Ratings)), true
}
