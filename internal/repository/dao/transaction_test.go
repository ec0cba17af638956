package dao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionHistory(t *testing.T) {
	db := requireDB(t)
	event := seedEvent(t, 1, "25")
	tickets := NewTicketDAO(db)

	sold, err := claim(context.Background(), tickets, event.ID, 41)
	require.NoError(t, err)

	_, err = tickets.InsertTransaction(context.Background(), Transaction{
		TicketID:        sold.ID,
		SellerID:        41,
		BuyerID:         42,
		Price:           sold.Price,
		TransactionType: TransactionResale,
		Status:          TransactionCompleted,
	})
	require.NoError(t, err)

	history, err := tickets.FindTransactionsByTicket(context.Background(), sold.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, TransactionPrimary, history[0].TransactionType)
	assert.Equal(t, TransactionResale, history[1].TransactionType)
	assert.False(t, history[0].Timestamp.IsZero())

	byUser, err := tickets.FindTransactionsByUser(context.Background(), 41)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(byUser), 2)
}

func TestTransaction_TicketCannotBeDeleted(t *testing.T) {
	db := requireDB(t)
	event := seedEvent(t, 1, "25")

	sold, err := claim(context.Background(), NewTicketDAO(db), event.ID, 51)
	require.NoError(t, err)

	err = db.Delete(&Ticket{}, sold.ID).Error
	assert.Error(t, err)
}

func TestInsertTransaction_UnknownTicket(t *testing.T) {
	db := requireDB(t)

	_, err := NewTicketDAO(db).InsertTransaction(context.Background(), Transaction{
		TicketID:        987654321,
		SellerID:        1,
		BuyerID:         2,
		TransactionType: TransactionPrimary,
	})

	assert.Error(t, err)
}
