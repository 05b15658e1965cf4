package storeerr_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"restaurant/internal/adapters/out/persistence/storeerr"
	"restaurant/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, storeerr.Classify("get order", nil))
	})

	t.Run("connection failures become store unavailable", func(t *testing.T) {
		for _, cause := range []error{
			driver.ErrBadConn,
			fmt.Errorf("query: %w", context.DeadlineExceeded),
			&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
		} {
			err := storeerr.Classify("get order", cause)

			require.ErrorIs(t, err, errs.ErrStoreIsUnavailable)
			assert.ErrorIs(t, err, cause)
		}
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		notFound := errs.NewObjectNotFoundError("order", "1")

		assert.Same(t, notFound, storeerr.Classify("get order", notFound))
	})
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, storeerr.IsDuplicate(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, storeerr.IsDuplicate(gorm.ErrRecordNotFound))
}
