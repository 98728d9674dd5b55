// storage.go
package s3

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound объект отсутствует в хранилище
var ErrObjectNotFound = errors.New("object not found")

// Storage определяет интерфейс для работы с хранилищем содержимого файлов
type Storage interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// GetURL возвращает адрес для скачивания или nil, если объекта нет
	GetURL(ctx context.Context, key string) (*string, error)
	// DeleteObject не считает ошибкой отсутствие объекта
	DeleteObject(ctx context.Context, key string) error
}
