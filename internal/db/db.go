package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoDocument is returned by Load when nothing has been stored yet.
var ErrNoDocument = errors.New("document not found")

// Document is a single serialized post collection. Every write replaces the
// whole document.
type Document interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
	Close() error
}

// Open returns the document backend selected by rawURL. Supported schemes
// are file://, sqlite:// and postgres:// (or postgresql://). key names the
// document inside SQL backends.
func Open(rawURL, key string, logger *zap.Logger) (Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch {
	case strings.HasPrefix(rawURL, "file://"):
		path := strings.TrimPrefix(rawURL, "file://")
		logger.Info("using JSON file document", zap.String("path", path))
		doc, err := NewFileDocument(path)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case strings.HasPrefix(rawURL, "sqlite://"):
		dsn := strings.TrimPrefix(rawURL, "sqlite://")
		logger.Info("connecting to SQLite database", zap.String("path", dsn))
		return openSQL(sqliteDialector(dsn), key)
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		logger.Info("connecting to PostgreSQL database")
		return openSQL(postgresDialector(rawURL), key)
	default:
		return nil, fmt.Errorf("invalid data URL %q: must start with file://, sqlite:// or postgres://", rawURL)
	}
}

func openSQL(dialector gorm.Dialector, key string) (Document, error) {
	doc, err := NewSQLDocument(dialector, key)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
