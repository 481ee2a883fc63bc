package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/seatbook/seatbook/database/model"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("database: not found")
	// ErrPoolExhausted is returned when no connection became free in time.
	ErrPoolExhausted = errors.New("database: connection pool exhausted")
	// ErrUnavailable wraps failures to reach or use the store.
	ErrUnavailable = errors.New("database: store unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// Translate maps a gorm/driver error onto the package taxonomy. Not-found,
// constraint, decode and cancellation errors keep their identity; everything
// else is reported as ErrUnavailable with the cause attached.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var decodeErr *model.DecodeError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPoolExhausted),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &decodeErr):
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
