package metadata

import (
	"context"

	"github.com/go-playground/validator/v10"

	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 100

// Recorder keeps a side record of every object written to storage.
type Recorder interface {
	Record(ctx context.Context, rec domain.UploadRecord) error
	// List returns the most recent records first.
	List(ctx context.Context, limit int) ([]domain.UploadRecord, error)
	Close() error
}

var validate = validator.New()

func validateRecord(rec domain.UploadRecord) error {
	if err := validate.Struct(rec); err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid upload record", err).
			WithContext("object", rec.ObjectName)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// Nop discards records. It is used when metadata recording is disabled.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, domain.UploadRecord) error { return nil }

// List implements Recorder.
func (Nop) List(context.Context, int) ([]domain.UploadRecord, error) {
	return []domain.UploadRecord{}, nil
}

// Close implements Recorder.
func (Nop) Close() error { return nil }
