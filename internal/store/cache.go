package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentKey is the well-known cache key holding the encoded document.
const DocumentKey = "cms_site_data"

// Cache is the persistent key-value storage the store reads and writes.
// Get reports ok=false when the key has no entry.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
}

// CacheEntry is one persisted key-value pair.
type CacheEntry struct {
	gorm.Model
	Key   string `gorm:"column:entry_key;size:255;uniqueIndex:idx_cache_entries_key;not null"`
	Value string `gorm:"type:text;not null"`
}

// TableName defines the table name for CacheEntry.
func (CacheEntry) TableName() string {
	return "cache_entries"
}

// Migrate applies the cache schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "store.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying cache schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&CacheEntry{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("cache schema migration failed")
		}
		return eris.Wrap(err, "auto migrating cache schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("cache schema migration complete")
	}

	return nil
}

// GormCache persists cache entries in SQLite through Gorm.
type GormCache struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ Cache = (*GormCache)(nil)

// NewGormCache constructs a Gorm-backed cache.
func NewGormCache(db *gorm.DB, logger *logrus.Logger) (*GormCache, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormCache{db: db, logger: logger}, nil
}

// Get returns the value stored under key.
func (c *GormCache) Get(ctx context.Context, key string) (string, bool, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", false, eris.New("cache key is required")
	}

	var entry CacheEntry
	err := c.db.WithContext(ctx).First(&entry, "entry_key = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		c.logError(logrus.Fields{"key": trimmed}, err, "reading cache entry")
		return "", false, eris.Wrap(ErrStorageUnavailable, err.Error())
	}

	return entry.Value, true, nil
}

// Put stores value under key, replacing any previous value.
func (c *GormCache) Put(ctx context.Context, key, value string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return eris.New("cache key is required")
	}

	entry := CacheEntry{Key: trimmed, Value: value}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		c.logError(logrus.Fields{"key": trimmed}, err, "writing cache entry")
		return eris.Wrap(ErrStorageUnavailable, err.Error())
	}

	return nil
}

func (c *GormCache) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
