package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/repairdesk/internal/audit/domain"
	"github.com/smallbiznis/repairdesk/internal/audit/repository"
	"github.com/smallbiznis/repairdesk/internal/audit/service"
	"github.com/smallbiznis/repairdesk/internal/clock"
	"github.com/smallbiznis/repairdesk/internal/config"
	"github.com/smallbiznis/repairdesk/internal/dbtest"
	"github.com/smallbiznis/repairdesk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	svc := service.NewService(service.Params{
		DB:    dbtest.Open(t),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Config: config.Config{
			Pagination: config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 50},
		},
		Repo: repository.Provide(),
	})
	return svc, fake
}

func TestRecordDefaultsToSystemActor(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, nil, auditdomain.Entry{
		Action:     auditdomain.ActionInvoiceIssued,
		TargetType: auditdomain.TargetInvoice,
		TargetID:   "42",
		Metadata:   map[string]any{"from": "draft", "to": "issued", "": "dropped"},
	}))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, string(auditdomain.ActorTypeSystem), entry.ActorType)
	assert.Nil(t, entry.ActorID)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "42", *entry.TargetID)
	assert.Equal(t, "issued", entry.Metadata["to"])
	assert.NotContains(t, entry.Metadata, "")
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Record(context.Background(), nil, auditdomain.Entry{Action: "  "})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListFiltersAndPages(t *testing.T) {
	svc, fake := newService(t)
	ctx := auditdomain.WithActor(context.Background(), auditdomain.ActorTypeCLI, " frontdesk ")

	actions := []string{
		auditdomain.ActionInvoiceIssued,
		auditdomain.ActionInvoiceSent,
		auditdomain.ActionInvoiceTotalSet,
		auditdomain.ActionInvoiceSent,
	}
	for _, action := range actions {
		require.NoError(t, svc.Record(ctx, nil, auditdomain.Entry{
			Action:     action,
			TargetType: auditdomain.TargetInvoice,
			TargetID:   "7",
		}))
		fake.Advance(time.Second)
	}

	sent, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: auditdomain.ActionInvoiceSent})
	require.NoError(t, err)
	assert.Len(t, sent.AuditLogs, 2)

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 3},
		TargetID:   "7",
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, auditdomain.ActionInvoiceSent, first.AuditLogs[0].Action)
	require.NotNil(t, first.AuditLogs[0].ActorID)
	assert.Equal(t, "frontdesk", *first.AuditLogs[0].ActorID)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 3, PageToken: first.NextPageToken},
		TargetID:   "7",
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, auditdomain.ActionInvoiceIssued, second.AuditLogs[0].Action)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-token"},
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}
