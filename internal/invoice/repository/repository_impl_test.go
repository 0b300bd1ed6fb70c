package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/repairdesk/internal/dbtest"
	"github.com/smallbiznis/repairdesk/internal/invoice/domain"
	"github.com/smallbiznis/repairdesk/internal/invoice/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRejectsSecondInvoiceForTicket(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := repository.Provide()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	ticketID := node.Generate()
	first := domain.Invoice{ID: node.Generate(), TicketID: ticketID, Status: domain.InvoiceStatusDraft, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Insert(ctx, db, &first))

	second := domain.Invoice{ID: node.Generate(), TicketID: ticketID, Status: domain.InvoiceStatusDraft, CreatedAt: now, UpdatedAt: now}
	err = repo.Insert(ctx, db, &second)
	assert.ErrorIs(t, err, domain.ErrInvoiceExists)

	found, err := repo.FindByTicket(ctx, db, ticketID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	found, err := repository.Provide().FindByID(context.Background(), dbtest.Open(t), snowflake.ID(42))
	require.NoError(t, err)
	assert.Nil(t, found)
}
