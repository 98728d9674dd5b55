package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite отметка "избранное" для пары (пространство, файл)
type Favorite struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SpaceID   string    `json:"space_id" db:"space_id"`
	FileID    uuid.UUID `json:"file_id" db:"file_id"`
	UserID    string    `json:"user_id,omitempty" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserProfile публичные данные загрузившего файл пользователя
type UserProfile struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Image     string    `json:"image" db:"image"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
