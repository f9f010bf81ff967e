package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/graph"
)

type fakeGraph struct {
	replyRes graph.ReplyResult
	replyErr error
	dmRes    graph.DMResult
	dmErr    error
	lastTo   graph.Recipient
	perm     bool
}

func (f *fakeGraph) SendReply(_ context.Context, _, _, _ string) (graph.ReplyResult, error) {
	return f.replyRes, f.replyErr
}

func (f *fakeGraph) SendDirectMessage(_ context.Context, _, _ string, to graph.Recipient, _ string) (graph.DMResult, error) {
	f.lastTo = to
	return f.dmRes, f.dmErr
}

func (f *fakeGraph) HasPermission(context.Context, string, string) (bool, error) { return f.perm, nil }

type memActionLogs struct {
	mu      sync.Mutex
	rows    []domain.ActionLog
	failErr error
}

func (m *memActionLogs) CreateActionLog(_ context.Context, _ *gorm.DB, l *domain.ActionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.rows = append(m.rows, *l)
	return nil
}

func (m *memActionLogs) CountActionLogs(_ context.Context, _ *gorm.DB, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *memActionLogs) ListActionLogsPage(_ context.Context, _ *gorm.DB, accountID string, offset, limit int) ([]domain.ActionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActionLog
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].AccountID == accountID {
			out = append(out, m.rows[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestActionExecutor_SendReply_AuditsSuccess(t *testing.T) {
	g := &fakeGraph{replyRes: graph.ReplyResult{ID: "r-1"}}
	logs := &memActionLogs{}
	e := NewActionExecutor(g, &gorm.DB{}, logs)
	before := testutil.ToFloat64(outboundActions.WithLabelValues(domain.ActionCommentReply, domain.ActionSent))

	res, err := e.SendReply(context.Background(), "tok", "acct", "c1", "hi")
	if err != nil || res.ID != "r-1" {
		t.Fatalf("SendReply = %+v, %v", res, err)
	}
	if len(logs.rows) != 1 {
		t.Fatalf("expected one audit row, got %d", len(logs.rows))
	}
	row := logs.rows[0]
	if row.Status != domain.ActionSent || row.ProviderID != "r-1" || row.TargetID != "c1" || row.Action != domain.ActionCommentReply {
		t.Fatalf("unexpected row: %+v", row)
	}
	after := testutil.ToFloat64(outboundActions.WithLabelValues(domain.ActionCommentReply, domain.ActionSent))
	if after-before != 1 {
		t.Fatalf("counter delta = %v", after-before)
	}
}

func TestActionExecutor_ProviderErrorPassesThroughAndIsAudited(t *testing.T) {
	apiErr := &graph.APIError{Status: 403, Code: 10, Message: "Permission denied"}
	g := &fakeGraph{dmErr: apiErr}
	logs := &memActionLogs{}
	e := NewActionExecutor(g, &gorm.DB{}, logs)

	_, err := e.SendDirectMessage(context.Background(), "tok", "acct", graph.Recipient{CommentID: "c9"}, "psst", domain.ActionPrivateReply)
	if !errors.Is(err, apiErr) {
		t.Fatalf("expected the provider error unchanged, got %v", err)
	}
	if g.lastTo.CommentID != "c9" {
		t.Fatalf("recipient not forwarded: %+v", g.lastTo)
	}
	row := logs.rows[0]
	if row.Status != domain.ActionFailed || row.HTTPStatus != 403 || row.ErrorCode != 10 || row.ErrorMessage != "Permission denied" || row.TargetID != "c9" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestActionExecutor_AuditFailureDoesNotFailSend(t *testing.T) {
	g := &fakeGraph{dmRes: graph.DMResult{MessageID: "m1", RecipientID: "u1"}}
	logs := &memActionLogs{failErr: errors.New("disk full")}
	e := NewActionExecutor(g, &gorm.DB{}, logs)

	res, err := e.SendDirectMessage(context.Background(), "tok", "acct", graph.Recipient{UserID: "u1"}, "hi", domain.ActionDMKeyword)
	if err != nil || res.MessageID != "m1" {
		t.Fatalf("send must succeed despite audit failure: %+v %v", res, err)
	}
}

func TestActionExecutor_NoLogRepoStillSends(t *testing.T) {
	e := NewActionExecutor(&fakeGraph{perm: true}, nil, nil)
	if _, err := e.SendReply(context.Background(), "tok", "acct", "c1", "x"); err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	ok, err := e.HasPermission(context.Background(), "tok", graph.PermissionManageMessages)
	if err != nil || !ok {
		t.Fatalf("HasPermission = %v, %v", ok, err)
	}
}

func TestActionExecutor_LogLineHasSingleAccountID(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("account_id", "acct").Logger()
	ctx := logger.WithContext(context.Background())

	e := NewActionExecutor(&fakeGraph{replyRes: graph.ReplyResult{ID: "r-1"}}, nil, nil)
	if _, err := e.SendReply(ctx, "tok", "acct", "c1", "hi"); err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, "outbound action sent") {
		t.Fatalf("missing sent line: %q", line)
	}
	if n := strings.Count(line, `"account_id"`); n != 1 {
		t.Fatalf("account_id appears %d times in %q", n, line)
	}
}
