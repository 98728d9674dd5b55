package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileType тип файла, допустимы только image, csv и pdf
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeCSV   FileType = "csv"
	FileTypePDF   FileType = "pdf"
)

func (t FileType) Valid() bool {
	switch t {
	case FileTypeImage, FileTypeCSV, FileTypePDF:
		return true
	default:
		return false
	}
}

// ParseFileType разбирает тип файла из строки запроса
func ParseFileType(s string) (FileType, error) {
	t := FileType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown file type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// LifecycleState состояние файла в жизненном цикле удаления
type LifecycleState string

const (
	StateActive          LifecycleState = "active"
	StatePendingDeletion LifecycleState = "pending-deletion"
)

type File struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Type                FileType   `json:"type" db:"type"`
	SpaceID             string     `json:"space_id" db:"space_id"`
	StorageKey          string     `json:"storage_key" db:"storage_key"`
	UploaderUserID      string     `json:"uploader_user_id" db:"uploader_user_id"`
	ShouldDelete        bool       `json:"should_delete" db:"should_delete"`
	MarkedForDeletionAt *time.Time `json:"marked_for_deletion_at,omitempty" db:"marked_for_deletion_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

func (f *File) State() LifecycleState {
	if f.ShouldDelete {
		return StatePendingDeletion
	}
	return StateActive
}

// ExpiredAt сообщает, истек ли срок хранения в корзине к моменту cutoff
func (f *File) ExpiredAt(cutoff time.Time) bool {
	return f.ShouldDelete && f.MarkedForDeletionAt != nil && f.MarkedForDeletionAt.Before(cutoff)
}

// ExpiryCursor позиция в очереди на окончательное удаление.
// Очередь упорядочена по (MarkedAt, ID).
type ExpiryCursor struct {
	MarkedAt time.Time
	ID       uuid.UUID
}

// CreateFileInput данные для завершения загрузки файла
type CreateFileInput struct {
	Name       string   `json:"name" validate:"required"`
	Type       FileType `json:"type" validate:"required,oneof=image csv pdf"`
	SpaceID    string   `json:"-"`
	StorageKey string   `json:"storage_key" validate:"required"`
}

// FileFilter параметры выборки файлов. Все условия объединяются через AND.
type FileFilter struct {
	Type          *FileType
	Query         string
	FavoritesOnly bool
	TrashOnly     bool
}

// Normalize обрезает пробелы и приводит строку поиска к нижнему регистру
func (f FileFilter) Normalize() FileFilter {
	f.Query = strings.ToLower(strings.TrimSpace(f.Query))
	return f
}

// Matches проверяет файл против нормализованного фильтра.
// Принадлежность к пространству проверяется вызывающей стороной.
func (f FileFilter) Matches(file *File, favorited bool) bool {
	if file.ShouldDelete != f.TrashOnly {
		return false
	}
	if f.Type != nil && file.Type != *f.Type {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(file.Name), f.Query) {
		return false
	}
	if f.FavoritesOnly && !favorited {
		return false
	}
	return true
}

// FileView файл в том виде, в котором он отдается клиенту
type FileView struct {
	File
	URL         *string    `json:"url" db:"-"`
	IsFavorited bool       `json:"is_favorited" db:"is_favorited"`
	PurgeAt     *time.Time `json:"purge_at,omitempty" db:"-"`
}
