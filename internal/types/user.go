package types

import (
	"time"

	"github.com/google/uuid"
)

// User exists only as an identity reference for patch authorship and
// ratings. Authentication lives outside this service.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserName string    `gorm:"column:user_name;not null;uniqueIndex" json:"user_name"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
