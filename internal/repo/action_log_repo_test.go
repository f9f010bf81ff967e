package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tbourn/go-ig-automation/internal/domain"
)

func TestCreateActionLog_FillsIDAndTimestamp(t *testing.T) {
	db := newTestDB(t)
	l := &domain.ActionLog{AccountID: "a1", Action: domain.ActionPrivateReply, TargetID: "c1", Status: domain.ActionSent}
	if err := CreateActionLog(context.Background(), db, l); err != nil {
		t.Fatalf("CreateActionLog: %v", err)
	}
	if len(l.ID) != 36 || l.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", l)
	}
}

func TestCreateActionLog_RejectsUnknownStatus(t *testing.T) {
	db := newTestDB(t)
	l := &domain.ActionLog{AccountID: "a1", Action: domain.ActionDMWelcome, Status: "pending"}
	if err := CreateActionLog(context.Background(), db, l); err == nil {
		t.Fatalf("expected CHECK constraint violation")
	}
}

func TestListActionLogsPage_NewestFirstAndPaged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		l := &domain.ActionLog{
			AccountID: "a1",
			Action:    domain.ActionCommentReply,
			TargetID:  fmt.Sprintf("c%d", i),
			Status:    domain.ActionSent,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := CreateActionLog(ctx, db, l); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := CountActionLogs(ctx, db, "a1")
	if err != nil || total != 5 {
		t.Fatalf("CountActionLogs = %d, %v; want 5", total, err)
	}

	page, err := ListActionLogsPage(ctx, db, "a1", 0, 2)
	if err != nil {
		t.Fatalf("ListActionLogsPage: %v", err)
	}
	if len(page) != 2 || page[0].TargetID != "c4" || page[1].TargetID != "c3" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = ListActionLogsPage(ctx, db, "a1", 4, 2)
	if err != nil {
		t.Fatalf("ListActionLogsPage: %v", err)
	}
	if len(page) != 1 || page[0].TargetID != "c0" {
		t.Fatalf("unexpected last page: %+v", page)
	}

	if n, _ := CountActionLogs(ctx, db, "other"); n != 0 {
		t.Fatalf("expected no rows for other account, got %d", n)
	}
}
