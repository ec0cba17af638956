package dao

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrConcurrencyConflict = errors.New("concurrent modification, safe to retry")

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&Ticket{},
		&Transaction{},
	)
}

// classify turns lock and serialization failures into ErrConcurrencyConflict.
// Every other error is returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return errors.Join(ErrConcurrencyConflict, err)
		}
	}

	return err
}
