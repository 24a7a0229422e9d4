package db

import (
	"context"
	"errors"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/threadline/internal/models"
)

// SQLDocument stores the document as one row of the documents table.
type SQLDocument struct {
	DB  *gorm.DB
	Key string
}

func sqliteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(dsn)
}

func postgresDialector(dsn string) gorm.Dialector {
	return postgres.Open(dsn)
}

// NewSQLDocument opens the database, migrates the documents table and
// returns a document bound to key.
func NewSQLDocument(dialector gorm.Dialector, key string) (*SQLDocument, error) {
	if key == "" {
		return nil, errors.New("document key is empty")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := db.AutoMigrate(&models.Document{}); err != nil {
		return nil, err
	}
	return &SQLDocument{DB: db, Key: key}, nil
}

func (s *SQLDocument) Load(ctx context.Context) ([]byte, error) {
	var doc models.Document
	err := s.DB.WithContext(ctx).Where("key = ?", s.Key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Body), nil
}

func (s *SQLDocument) Save(ctx context.Context, data []byte) error {
	doc := models.Document{Key: s.Key, Body: string(data)}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&doc).Error
}

func (s *SQLDocument) Remove(ctx context.Context) error {
	return s.DB.WithContext(ctx).Where("key = ?", s.Key).Delete(&models.Document{}).Error
}

func (s *SQLDocument) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
