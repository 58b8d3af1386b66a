package metadata

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// Upload is the gorm model for an upload side record.
type Upload struct {
	ID         string    `gorm:"primaryKey;size:36"`
	RunID      string    `gorm:"size:36;index"`
	Uploader   string    `gorm:"size:128;not null"`
	Label      string    `gorm:"size:200"`
	Backend    string    `gorm:"size:16;not null"`
	ObjectName string    `gorm:"size:1024;not null"`
	Rows       int       `gorm:"column:row_count;not null;default:0"`
	UploadedAt time.Time `gorm:"not null;index:idx_remit_uploads_uploaded_at,sort:desc"`
}

// TableName overrides the gorm default.
func (Upload) TableName() string {
	return "remit_uploads"
}

func uploadFromDomain(rec domain.UploadRecord) Upload {
	return Upload{
		ID:         rec.ID,
		RunID:      rec.RunID,
		Uploader:   rec.Uploader,
		Label:      rec.Label,
		Backend:    rec.Backend,
		ObjectName: rec.ObjectName,
		Rows:       rec.Rows,
		UploadedAt: rec.UploadedAt.UTC(),
	}
}

func (u Upload) toDomain() domain.UploadRecord {
	return domain.UploadRecord{
		ID:         u.ID,
		RunID:      u.RunID,
		Uploader:   u.Uploader,
		Label:      u.Label,
		Backend:    u.Backend,
		ObjectName: u.ObjectName,
		Rows:       u.Rows,
		UploadedAt: u.UploadedAt.UTC(),
	}
}

// GormStore records uploads in PostgreSQL through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to the PostgreSQL database at dsn and migrates the
// uploads table.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, apperrors.NewStorageError("connecting to metadata database", err)
	}

	if err := db.AutoMigrate(&Upload{}); err != nil {
		return nil, apperrors.NewStorageError("migrating metadata database", err)
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreWithDB wraps an open gorm handle without migrating it.
func NewGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Record inserts rec, replacing any record with the same ID.
func (s *GormStore) Record(ctx context.Context, rec domain.UploadRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	model := uploadFromDomain(rec)
	if err := upsert(s.db.WithContext(ctx), &model).Error; err != nil {
		return apperrors.NewStorageError("recording upload", err).WithContext("object", rec.ObjectName)
	}
	return nil
}

// List returns up to limit records, newest first.
func (s *GormStore) List(ctx context.Context, limit int) ([]domain.UploadRecord, error) {
	var models []Upload
	if err := recent(s.db.WithContext(ctx), limit, &models).Error; err != nil {
		return nil, apperrors.NewStorageError("querying uploads", err)
	}

	records := make([]domain.UploadRecord, 0, len(models))
	for _, m := range models {
		records = append(records, m.toDomain())
	}
	return records, nil
}

// Close closes the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsert(tx *gorm.DB, model *Upload) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model)
}

func recent(tx *gorm.DB, limit int, dst *[]Upload) *gorm.DB {
	return tx.Order("uploaded_at DESC").Order("id").Limit(normalizeLimit(limit)).Find(dst)
}
