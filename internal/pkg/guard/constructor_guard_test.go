package guard_test

import (
	"errors"
	"sync"
	"testing"

	"restaurant/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	errNotConstructed := errors.New("ticket must be created via NewTicket")

	t.Run("constructed_guard_returns_nil", func(t *testing.T) {
		g := guard.NewConstructorGuard()

		require.NoError(t, g.Validate(errNotConstructed))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero_value_guard_returns_given_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		assert.Equal(t, errNotConstructed, g.Validate(errNotConstructed))
	})

	t.Run("zero_value_guard_falls_back_to_default_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		assert.Equal(t, guard.ErrDefaultConstructorGuard, g.Validate(nil))
		assert.Equal(t, "object must be created via its constructor", guard.ErrDefaultConstructorGuard.Error())
	})
}

func TestConstructorGuard_EmbeddedInValueObject(t *testing.T) {
	type ticket struct {
		table string
		guard guard.ConstructorGuard
	}
	errTicket := errors.New("ticket must be created via newTicket")
	newTicket := func(table string) (ticket, error) {
		if table == "" {
			return ticket{}, errors.New("table is required")
		}
		return ticket{table: table, guard: guard.NewConstructorGuard()}, nil
	}

	tk, err := newTicket("T1")
	require.NoError(t, err)
	require.NoError(t, tk.guard.Validate(errTicket))

	copied := tk
	require.NoError(t, copied.guard.Validate(errTicket))

	var literal ticket
	assert.Equal(t, errTicket, literal.guard.Validate(errTicket))
}

func TestConstructorGuard_ConcurrentValidate(t *testing.T) {
	g := guard.NewConstructorGuard()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.NoError(t, g.Validate(nil))
			}
		}()
	}
	wg.Wait()
}
