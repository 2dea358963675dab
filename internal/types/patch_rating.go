package types

import (
	"time"

	"github.com/google/uuid"
)

// PatchRating is one user's star score for one patch. The
// (user_id, patch_id) pair is unique; repeat ratings update in place.
type PatchRating struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_patch" json:"user_id"`
	PatchID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_patch;index" json:"patch_id"`

	Stars int `gorm:"column:stars;not null;check:stars >= 1 AND stars <= 5" json:"stars"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (PatchRating) TableName() string { return "patch_rating" }
