package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ig-automation/internal/credentials"
	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/repo"
	"github.com/tbourn/go-ig-automation/internal/services"
)

// ---------- test plumbing ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func do(r http.Handler, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// stubWebhook satisfies WebhookService.
type stubWebhook struct {
	verify func(mode, token, challenge string) (string, error)
	handle func(ctx context.Context, body []byte, sig string) error
}

func (s stubWebhook) VerifySubscription(mode, token, challenge string) (string, error) {
	return s.verify(mode, token, challenge)
}

func (s stubWebhook) HandleDelivery(ctx context.Context, body []byte, sig string) error {
	return s.handle(ctx, body, sig)
}

// stubAutomations is an in-memory AutomationService.
type stubAutomations struct {
	rules   map[string]domain.AutomationRule
	dm      map[string]domain.DMAutomationRule
	puts    int
	lastUID string
	err     error
}

func newStubAutomations() *stubAutomations {
	return &stubAutomations{rules: map[string]domain.AutomationRule{}, dm: map[string]domain.DMAutomationRule{}}
}

func (s *stubAutomations) List(_ context.Context, userID string) (map[string]domain.AutomationRule, error) {
	s.lastUID = userID
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]domain.AutomationRule{}
	for k, v := range s.rules {
		if userID == "" || v.Owner() == userID {
			out[k] = v
		}
	}
	return out, nil
}

func (s *stubAutomations) Get(_ context.Context, mediaID string) (*domain.AutomationRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.rules[mediaID]
	if !ok {
		return nil, services.ErrAutomationNotFound
	}
	return &r, nil
}

func (s *stubAutomations) Put(_ context.Context, userID, mediaID string, r *domain.AutomationRule) (bool, error) {
	s.puts++
	s.lastUID = userID
	if s.err != nil {
		return false, s.err
	}
	if err := r.Normalize(); err != nil {
		return false, err
	}
	if userID != "" {
		r.OwnerUserID = &userID
	}
	_, exists := s.rules[mediaID]
	s.rules[mediaID] = *r
	return !exists, nil
}

func (s *stubAutomations) Delete(_ context.Context, userID, mediaID string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.rules[mediaID]; !ok {
		return services.ErrAutomationNotFound
	}
	delete(s.rules, mediaID)
	return nil
}

func (s *stubAutomations) GetDM(_ context.Context, accountID string) (*domain.DMAutomationRule, error) {
	r, ok := s.dm[accountID]
	if !ok {
		return nil, services.ErrAutomationNotFound
	}
	return &r, nil
}

func (s *stubAutomations) PutDM(_ context.Context, accountID string, r *domain.DMAutomationRule) error {
	if err := r.Normalize(); err != nil {
		return err
	}
	s.dm[accountID] = *r
	return nil
}

func (s *stubAutomations) ListDM(context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.dm))
	for id := range s.dm {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *stubAutomations) DeleteDM(_ context.Context, accountID string) error {
	if _, ok := s.dm[accountID]; !ok {
		return services.ErrAutomationNotFound
	}
	delete(s.dm, accountID)
	return nil
}

// stubAnalytics satisfies AnalyticsService with canned results.
type stubAnalytics struct {
	summary   func(period string) (*domain.AnalyticsSummary, error)
	dms       []domain.DMRecord
	lastLimit int
	actions   func(accountID string, page, pageSize int) ([]domain.ActionLog, int64, error)
	records   map[string]domain.ReplyRecord
	events    []domain.Event
	lastType  string
}

func (s *stubAnalytics) Summary(_ context.Context, period string) (*domain.AnalyticsSummary, error) {
	return s.summary(period)
}

func (s *stubAnalytics) DMHistory(_ context.Context, accountID string, limit int) ([]domain.DMRecord, error) {
	s.lastLimit = limit
	return s.dms, nil
}

func (s *stubAnalytics) Actions(_ context.Context, accountID string, page, pageSize int) ([]domain.ActionLog, int64, error) {
	return s.actions(accountID, page, pageSize)
}

func (s *stubAnalytics) ReplyRecord(_ context.Context, commentID string) (*domain.ReplyRecord, error) {
	rec, ok := s.records[commentID]
	if !ok {
		return nil, services.ErrRecordNotFound
	}
	return &rec, nil
}

func (s *stubAnalytics) RecentEvents(_ context.Context, typ string, limit int) ([]domain.Event, error) {
	if typ == "" {
		return nil, services.ErrInvalidID
	}
	s.lastType, s.lastLimit = typ, limit
	return s.events, nil
}

// stubBot satisfies BotService.
type stubBot struct {
	status    credentials.Status
	lastToken string
	err       error
}

func (s *stubBot) Status() credentials.Status { return s.status }

func (s *stubBot) UpdateToken(_ context.Context, token string) (credentials.Status, error) {
	s.lastToken = token
	if s.err != nil {
		return credentials.Status{}, s.err
	}
	s.status = credentials.Status{Configured: true, Preview: credentials.Mask(token), Source: "admin"}
	return s.status, nil
}

type stubMaintenance struct {
	res services.CleanupResult
	err error
}

func (s stubMaintenance) Cleanup(context.Context, time.Time) (services.CleanupResult, error) {
	return s.res, s.err
}

type stubAccounts struct {
	saved *domain.Account
}

func (s *stubAccounts) Register(_ context.Context, a *domain.Account) error {
	a.ID = strings.TrimSpace(a.ID)
	if a.ID == "" {
		return services.ErrInvalidID
	}
	s.saved = a
	return nil
}
