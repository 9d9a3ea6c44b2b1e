package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transfer-manager/core/database"
	"transfer-manager/core/transfer"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no ledger entry matches.
var ErrNotFound = errors.New("ledger entry not found")

// Record is one row of the transfers table.
type Record struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Bucket        string    `gorm:"column:bucket;size:255;index:idx_transfers_object,priority:1" json:"bucket"`
	ObjectKey     string    `gorm:"column:object_key;size:512;index:idx_transfers_object,priority:2" json:"key"`
	Filename      string    `gorm:"column:filename;size:255" json:"filename"`
	ContentType   string    `gorm:"column:content_type;size:255" json:"content_type"`
	ContentLength int64     `gorm:"column:content_length" json:"content_length"`
	Digest        string    `gorm:"column:digest;size:64" json:"digest"`
	State         string    `gorm:"column:state;size:32" json:"state"`
	Reason        string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (Record) TableName() string {
	return "transfers"
}

// Columns lists the columns the application reads and writes.
var Columns = []string{
	"id", "bucket", "object_key", "filename", "content_type",
	"content_length", "digest", "state", "reason", "created_at", "updated_at",
}

// Ledger persists the outcome of every transfer.
type Ledger struct {
	db *gorm.DB
}

// New creates a ledger over db.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Setup migrates the transfers table and returns the ledger.
// A nil db yields a nil ledger and no error.
func Setup(db *gorm.DB) (*Ledger, error) {
	if db == nil {
		return nil, nil
	}
	l := New(db)
	if err := l.Migrate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Migrate creates or updates the transfers table.
func (l *Ledger) Migrate() error {
	if err := l.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate transfers table: %w", err)
	}
	return nil
}

// Save inserts the transfer, or updates its state, digest and reason when an
// entry for the same bucket/key already exists.
func (l *Ledger) Save(ctx context.Context, t *transfer.Transfer) error {
	var existing Record
	err := l.db.WithContext(ctx).
		Where("bucket = ? AND object_key = ?", t.Bucket, t.Key).
		Take(&existing).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec := Record{
			Bucket:        t.Bucket,
			ObjectKey:     t.Key,
			Filename:      t.Filename,
			ContentType:   t.Metadata.ContentType,
			ContentLength: t.Metadata.ContentLength,
			Digest:        t.Digest,
			State:         string(t.State),
			Reason:        t.Reason,
		}
		if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to record transfer %s/%s: %w", t.Bucket, t.Key, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up transfer %s/%s: %w", t.Bucket, t.Key, err)
	}

	err = l.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
		"state":  string(t.State),
		"digest": t.Digest,
		"reason": t.Reason,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update transfer %s/%s: %w", t.Bucket, t.Key, err)
	}
	return nil
}

// Find returns the entry for bucket/key.
func (l *Ledger) Find(ctx context.Context, bucket, key string) (*Record, error) {
	var rec Record
	err := l.db.WithContext(ctx).
		Where("bucket = ? AND object_key = ?", bucket, key).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transfer %s/%s: %w", bucket, key, err)
	}
	return &rec, nil
}

// List returns the most recent entries, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []Record
	if err := l.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return records, nil
}

// MissingColumns reports expected columns absent from the transfers table.
func (l *Ledger) MissingColumns() ([]string, error) {
	return database.MissingColumns(l.db, Record{}.TableName(), Columns)
}
