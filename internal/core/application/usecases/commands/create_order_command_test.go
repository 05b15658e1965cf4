package commands_test

import (
	"testing"

	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateOrderCommand(t *testing.T) {
	id := kernel.NewUUID()

	t.Run("should trim the table name and keep the items", func(t *testing.T) {
		items := []order.ItemDraft{{Name: "Ceviche", Quantity: 1}}

		cmd, err := commands.NewCreateOrderCommand(id, "  T1 ", items)

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.True(t, cmd.OrderID().IsEqual(id))
		assert.Equal(t, "T1", cmd.TableName())
		assert.Equal(t, items, cmd.Items())
	})

	t.Run("should reject a blank table name", func(t *testing.T) {
		_, err := commands.NewCreateOrderCommand(id, " ", nil)

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject the zero id", func(t *testing.T) {
		_, err := commands.NewCreateOrderCommand(kernel.UUID{}, "T1", nil)

		assert.Error(t, err)
	})

	t.Run("should not validate a literal", func(t *testing.T) {
		assert.Equal(t, commands.ErrCreateOrderCommandIsNotConstructed, commands.CreateOrderCommand{}.Validate())
	})
}

func TestNewSetOrderStatusCommand(t *testing.T) {
	id := kernel.NewUUID()

	t.Run("should parse case-insensitively", func(t *testing.T) {
		cmd, err := commands.NewSetOrderStatusCommand(id, " ready ")

		require.NoError(t, err)
		assert.Equal(t, order.Ready, cmd.Status())
	})

	t.Run("should reject an unknown status", func(t *testing.T) {
		_, err := commands.NewSetOrderStatusCommand(id, "done")

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestNewInvoiceOrderCommand(t *testing.T) {
	id := kernel.NewUUID()

	t.Run("should keep a known method", func(t *testing.T) {
		cmd, err := commands.NewInvoiceOrderCommand(id, "card")

		require.NoError(t, err)
		assert.Equal(t, order.Card, cmd.PaymentMethod())
		assert.False(t, cmd.FellBack())
	})

	t.Run("should fall back to the default method", func(t *testing.T) {
		cmd, err := commands.NewInvoiceOrderCommand(id, "bitcoin")

		require.NoError(t, err)
		assert.Equal(t, order.DefaultPaymentMethod, cmd.PaymentMethod())
		assert.True(t, cmd.FellBack())
		assert.Equal(t, "bitcoin", cmd.RequestedMethod())
	})
}

func TestCommandsRequireConstruction(t *testing.T) {
	assert.Error(t, commands.ReplaceLineItemsCommand{}.Validate())
	assert.Error(t, commands.SetOrderStatusCommand{}.Validate())
	assert.Error(t, commands.InvoiceOrderCommand{}.Validate())
	assert.Error(t, commands.RemoveOrderCommand{}.Validate())

	_, err := commands.NewRemoveOrderCommand(kernel.UUID{})
	assert.Error(t, err)
	_, err = commands.NewReplaceLineItemsCommand(kernel.UUID{}, nil)
	assert.Error(t, err)
}
