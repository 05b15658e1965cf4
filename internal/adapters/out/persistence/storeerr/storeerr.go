// Package storeerr translates GORM and driver failures into the errs taxonomy so the
// application layer can tell a broken connection from a bad request.
package storeerr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"restaurant/internal/pkg/errs"

	"gorm.io/gorm"
)

// Classify wraps err for the named operation.
//
// Connection-level failures become errs.StoreUnavailableError. Errors that already belong
// to the errs taxonomy, and anything else, are returned unchanged.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}

	if IsUnavailable(err) {
		return errs.NewStoreUnavailableError(operation, err)
	}
	return err
}

// IsUnavailable reports whether err means the store could not be reached or the
// connection broke, as opposed to the statement being rejected.
func IsUnavailable(err error) bool {
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr)
}

// IsDuplicate reports a unique constraint violation. It relies on gorm.Config.TranslateError.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
