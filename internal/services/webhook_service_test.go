package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-ig-automation/internal/config"
	"github.com/tbourn/go-ig-automation/internal/credentials"
	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/gate"
	"github.com/tbourn/go-ig-automation/internal/graph"
	"github.com/tbourn/go-ig-automation/internal/kv"
	"github.com/tbourn/go-ig-automation/internal/kv/kvtest"
	"github.com/tbourn/go-ig-automation/internal/repo"
)

// ---------- fakes ----------

type sentReply struct {
	token, accountID, commentID, text string
}

type sentDM struct {
	token, accountID string
	to               graph.Recipient
	text, action     string
}

type fakeOutbound struct {
	mu         sync.Mutex
	replies    []sentReply
	dms        []sentDM
	replyErr   func(commentID string) error
	dmErr      error
	permOK     bool
	permErr    error
	permChecks int
}

func (f *fakeOutbound) SendReply(_ context.Context, token, accountID, commentID, text string) (graph.ReplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		if err := f.replyErr(commentID); err != nil {
			return graph.ReplyResult{}, err
		}
	}
	f.replies = append(f.replies, sentReply{token, accountID, commentID, text})
	return graph.ReplyResult{ID: "reply-" + commentID}, nil
}

func (f *fakeOutbound) SendDirectMessage(_ context.Context, token, accountID string, to graph.Recipient, text, action string) (graph.DMResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dmErr != nil {
		return graph.DMResult{}, f.dmErr
	}
	f.dms = append(f.dms, sentDM{token, accountID, to, text, action})
	return graph.DMResult{MessageID: fmt.Sprintf("mid.%d", len(f.dms)), RecipientID: to.UserID}, nil
}

func (f *fakeOutbound) HasPermission(context.Context, string, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permChecks++
	return f.permOK, f.permErr
}

func (f *fakeOutbound) replyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

func (f *fakeOutbound) dmCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dms)
}

type fakePageTokens map[string]string

func (f fakePageTokens) PageToken(_ context.Context, id string) (string, error) { return f[id], nil }

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return nil
}

// ---------- fixture ----------

type webhookFixture struct {
	svc       *WebhookService
	out       *fakeOutbound
	gate      *gate.Gate
	rules     *repo.AutomationRepo
	dmRules   *repo.DMAutomationRepo
	analytics *repo.AnalyticsRepo
	mr        *miniredis.Miniredis
	sleeper   *recordingSleeper
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	store, mr := kvtest.New(t)
	creds, err := credentials.New("bot-token-0123456789", "")
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	f := &webhookFixture{
		out:       &fakeOutbound{permOK: true},
		gate:      gate.New(store),
		rules:     repo.NewAutomationRepo(store),
		dmRules:   repo.NewDMAutomationRepo(store),
		analytics: repo.NewAnalyticsRepo(store),
		mr:        mr,
		sleeper:   &recordingSleeper{},
	}
	f.svc = &WebhookService{
		Rules:       f.rules,
		DMRules:     f.dmRules,
		Gate:        f.gate,
		Analytics:   f.analytics,
		Actions:     f.out,
		Credentials: creds,
		Accounts:    fakePageTokens{},
		Webhook: config.WebhookConfig{
			VerifyToken:     "verify-me",
			Object:          "instagram",
			Concurrency:     4,
			CommentDedupTTL: 600 * time.Second,
			ReplyRecordTTL:  30 * 24 * time.Hour,
		},
		Limits: config.LimitsConfig{
			Window:                time.Hour,
			RepliesPerMedia:       20,
			PrivateRepliesPerAcct: 750,
			KeywordDMsPerSender:   10,
			AutomationsPerUserDay: 100,
		},
		Sleep: f.sleeper.Sleep,
	}
	return f
}

func (f *webhookFixture) saveRule(t *testing.T, mediaID string, r domain.AutomationRule) {
	t.Helper()
	if err := r.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, err := f.rules.Save(context.Background(), mediaID, &r); err != nil {
		t.Fatalf("save rule: %v", err)
	}
}

func (f *webhookFixture) record(t *testing.T, commentID string) *domain.ReplyRecord {
	t.Helper()
	rec, err := f.gate.ReplyRecord(context.Background(), commentID)
	if err != nil {
		t.Fatalf("reply record: %v", err)
	}
	return rec
}

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

type commentSpec struct {
	entryID, commentID, fromID, username, mediaID, text string
}

func commentPayload(cs ...commentSpec) []byte {
	entries := map[string]*domain.Entry{}
	var order []string
	for _, c := range cs {
		e, ok := entries[c.entryID]
		if !ok {
			e = &domain.Entry{ID: c.entryID}
			entries[c.entryID] = e
			order = append(order, c.entryID)
		}
		e.Changes = append(e.Changes, domain.Change{
			Field: domain.FieldComments,
			Value: domain.CommentValue{
				ID:    c.commentID,
				Text:  c.text,
				From:  &domain.CommentFrom{ID: c.fromID, Username: c.username},
				Media: &domain.MediaRef{ID: c.mediaID},
			},
		})
	}
	p := domain.WebhookPayload{Object: "instagram"}
	for _, id := range order {
		p.Entry = append(p.Entry, *entries[id])
	}
	b, _ := json.Marshal(p)
	return b
}

func dmPayload(accountID, senderID, mid, text string, prior bool) []byte {
	ev := domain.MessagingEvent{
		Sender:    domain.Party{ID: senderID},
		Recipient: domain.Party{ID: accountID},
		Message:   &domain.InboundDM{Mid: mid, Text: text},
	}
	if prior {
		ev.PriorMessage = &domain.PriorMessage{Source: "ig", Identifier: "x"}
	}
	b, _ := json.Marshal(domain.WebhookPayload{
		Object: "instagram",
		Entry:  []domain.Entry{{ID: accountID, Messaging: []domain.MessagingEvent{ev}}},
	})
	return b
}

var bob = commentSpec{entryID: "acct", commentID: "c1", fromID: "u1", username: "bob", mediaID: "m1", text: "nice"}

// ---------- verification ----------

func TestVerifySubscription(t *testing.T) {
	f := newWebhookFixture(t)

	got, err := f.svc.VerifySubscription("subscribe", "verify-me", "12345")
	if err != nil || got != "12345" {
		t.Fatalf("expected challenge echo, got %q, %v", got, err)
	}
	if _, err := f.svc.VerifySubscription("subscribe", "wrong", "1"); !errors.Is(err, ErrVerifyTokenMismatch) {
		t.Fatalf("expected ErrVerifyTokenMismatch, got %v", err)
	}
	if _, err := f.svc.VerifySubscription("unsubscribe", "verify-me", "1"); !errors.Is(err, ErrVerifyTokenMismatch) {
		t.Fatalf("expected mismatch for wrong mode, got %v", err)
	}
	if _, err := f.svc.VerifySubscription("", "", ""); !errors.Is(err, ErrMissingVerifyParams) {
		t.Fatalf("expected ErrMissingVerifyParams, got %v", err)
	}
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"object":"instagram","entry":[]}`)

	if err := f.svc.VerifySignature(body, ""); err != nil {
		t.Fatalf("no secret configured should accept: %v", err)
	}

	f.svc.Webhook.AppSecret = "s3cret"
	if err := f.svc.VerifySignature(body, sign("s3cret", body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	for _, h := range []string{"", "sha1=abc", "sha256=zz", sign("other", body)} {
		if err := f.svc.VerifySignature(body, h); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("header %q: expected ErrInvalidSignature, got %v", h, err)
		}
	}
	if err := f.svc.HandleDelivery(context.Background(), body, "sha256=00"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("HandleDelivery must check the signature, got %v", err)
	}
}

func TestHandleDelivery_MalformedAndUnknownObject(t *testing.T) {
	f := newWebhookFixture(t)
	if err := f.svc.HandleDelivery(context.Background(), []byte("{"), ""); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if err := f.svc.HandleDelivery(context.Background(), []byte(`{"object":"page","entry":[]}`), ""); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("expected ErrUnknownObject, got %v", err)
	}
}

// ---------- comments ----------

func TestComment_FreshWithAutomation_RepliesAndCompletes(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("Thanks {username}!"), DailyLimit: intp(100)})

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}

	if len(f.out.replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(f.out.replies))
	}
	r := f.out.replies[0]
	if r.text != "Thanks bob!" || r.commentID != "c1" || r.token != "bot-token-0123456789" || r.accountID != "acct" {
		t.Fatalf("unexpected reply: %+v", r)
	}
	rec := f.record(t, "c1")
	if rec == nil || rec.Status != domain.ReplyCompleted || rec.ReplyID != "reply-c1" || rec.Message != "Thanks bob!" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	daily, _ := f.analytics.DailyStats(context.Background(), repo.DayKey(time.Now()))
	if daily[repo.StatCommentsReplied] != 1 {
		t.Fatalf("comments_replied = %d", daily[repo.StatCommentsReplied])
	}
}

func TestComment_TemplateReplacesBothPlaceholders(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("Hey {user}, thanks {username}! {user}")})

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(commentSpec{"acct", "c1", "u1", "alice", "m1", "hi"}), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if got := f.out.replies[0].text; got != "Hey alice, thanks alice! alice" {
		t.Fatalf("rendered %q", got)
	}
}

func TestComment_ConcurrentDuplicateDeliveries_AtMostOneReply(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("Thanks {username}!")})
	body := commentPayload(bob)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
				t.Errorf("HandleDelivery: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := f.out.replyCount(); n != 1 {
		t.Fatalf("expected exactly 1 reply, got %d", n)
	}
	if rec := f.record(t, "c1"); rec == nil || !rec.Terminal() {
		t.Fatalf("record must be terminal, got %+v", rec)
	}
}

func TestComment_RedeliveryAfterMarkerExpiry_StillOneReply(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("ok")})
	body := commentPayload(bob)

	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	f.mr.FastForward(601 * time.Second)
	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("second: %v", err)
	}
	if n := f.out.replyCount(); n != 1 {
		t.Fatalf("reply record must absorb the replay, got %d replies", n)
	}
}

func TestComment_SelfLoop_NeverReplies(t *testing.T) {
	f := newWebhookFixture(t)
	f.svc.Webhook.BusinessAccountID = "bot-biz"
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("loop"), AutoDMOnComment: true})

	self := commentSpec{"acct", "c1", "acct", "me", "m1", "my own reply"}
	biz := commentSpec{"acct", "c2", "bot-biz", "me", "m1", "also mine"}
	if err := f.svc.HandleDelivery(context.Background(), commentPayload(self, biz), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if f.out.replyCount() != 0 || f.out.dmCount() != 0 {
		t.Fatalf("self comments must not trigger sends: %+v %+v", f.out.replies, f.out.dms)
	}
	if f.record(t, "c1") != nil {
		t.Fatalf("self comment must not be claimed")
	}
}

func TestComment_MissingFields_Skipped(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("x")})

	body, _ := json.Marshal(domain.WebhookPayload{Object: "instagram", Entry: []domain.Entry{{
		ID: "acct",
		Changes: []domain.Change{
			{Field: "comments", Value: domain.CommentValue{ID: "c1", Text: "", From: &domain.CommentFrom{ID: "u1"}, Media: &domain.MediaRef{ID: "m1"}}},
			{Field: "comments", Value: domain.CommentValue{ID: "c2", Text: "hi", Media: &domain.MediaRef{ID: "m1"}}},
			{Field: "mentions", Value: domain.CommentValue{ID: "c3", Text: "hi", From: &domain.CommentFrom{ID: "u1"}}},
		},
	}}})
	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("malformed events must not fail the delivery: %v", err)
	}
	if f.out.replyCount() != 0 {
		t.Fatalf("expected no replies")
	}
}

func TestComment_LiveCommentsAndCommentIDField(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "live1", domain.AutomationRule{CommentReplyTemplate: strp("live!")})
	body, _ := json.Marshal(domain.WebhookPayload{Object: "instagram", Entry: []domain.Entry{{
		ID: "acct",
		Changes: []domain.Change{{Field: domain.FieldLiveComments, Value: domain.CommentValue{
			CommentID: "lc1", Text: "wow", From: &domain.CommentFrom{ID: "u9", Username: "zed"}, Media: &domain.MediaRef{ID: "live1"},
		}}},
	}}})
	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if f.out.replyCount() != 1 || f.out.replies[0].commentID != "lc1" {
		t.Fatalf("expected reply to lc1, got %+v", f.out.replies)
	}
}

func TestComment_DailyQuotaExhausted(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi"), DailyLimit: intp(1)})

	c2 := bob
	c2.commentID, c2.fromID = "c2", "u2"
	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := f.svc.HandleDelivery(context.Background(), commentPayload(c2), ""); err != nil {
		t.Fatalf("second: %v", err)
	}
	if n := f.out.replyCount(); n != 1 {
		t.Fatalf("expected 1 reply, got %d", n)
	}
	rec := f.record(t, "c2")
	if rec == nil || rec.Status != domain.ReplySkipped || rec.Reason != domain.SkipDailyLimit {
		t.Fatalf("unexpected record for c2: %+v", rec)
	}
}

func TestComment_RateLimited(t *testing.T) {
	f := newWebhookFixture(t)
	f.svc.Limits.RepliesPerMedia = 1
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi")})

	c2 := bob
	c2.commentID = "c2"
	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := f.svc.HandleDelivery(context.Background(), commentPayload(c2), ""); err != nil {
		t.Fatalf("second: %v", err)
	}
	if n := f.out.replyCount(); n != 1 {
		t.Fatalf("expected 1 reply, got %d", n)
	}
	if rec := f.record(t, "c2"); rec.Reason != domain.SkipRateLimited {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestComment_NoRule_SkippedThenActsOnceRuleExists(t *testing.T) {
	f := newWebhookFixture(t)
	body := commentPayload(bob)

	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	rec := f.record(t, "c1")
	if rec == nil || rec.Status != domain.ReplySkipped || rec.Reason != domain.SkipNoRule {
		t.Fatalf("expected skipped/no_rule, got %+v", rec)
	}

	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("late")})
	// Within the marker TTL the redelivery is absorbed.
	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("second: %v", err)
	}
	if f.out.replyCount() != 0 {
		t.Fatalf("marker must absorb the redelivery")
	}

	f.mr.FastForward(601 * time.Second)
	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("third: %v", err)
	}
	if f.out.replyCount() != 1 {
		t.Fatalf("skipped comment should be eligible after the marker expires")
	}
	if rec := f.record(t, "c1"); rec.Status != domain.ReplyCompleted {
		t.Fatalf("expected completed, got %+v", rec)
	}
}

func TestComment_ResponseDelayUsesSleeper(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi"), ResponseDelaySeconds: intp(7)})

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if len(f.sleeper.waits) != 1 || f.sleeper.waits[0] != 7*time.Second {
		t.Fatalf("expected one 7s wait, got %v", f.sleeper.waits)
	}
}

func TestComment_ProviderDuplicate_FinalizesErrorDuplicate(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi")})
	f.out.replyErr = func(string) error {
		return &graph.APIError{Status: 400, Code: 100, Message: "Duplicate reply detected"}
	}

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("send failures must not fail the delivery: %v", err)
	}
	if rec := f.record(t, "c1"); rec == nil || rec.Status != domain.ReplyErrorDuplicate {
		t.Fatalf("expected error_duplicate, got %+v", rec)
	}
}

func TestComment_TransientFailure_ReleasesForRetry(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi")})
	fail := true
	f.out.replyErr = func(string) error {
		if fail {
			return &graph.APIError{Status: 500, Code: 2, Message: "temporary"}
		}
		return nil
	}
	body := commentPayload(bob)

	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	rec := f.record(t, "c1")
	if rec == nil || rec.Status != domain.ReplySkipped || rec.Reason != domain.SkipSendFailed {
		t.Fatalf("expected skipped/send_failed, got %+v", rec)
	}

	fail = false
	if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.out.replyCount() != 1 {
		t.Fatalf("redelivery should retry immediately, got %d replies", f.out.replyCount())
	}
	if rec := f.record(t, "c1"); rec.Status != domain.ReplyCompleted {
		t.Fatalf("expected completed after retry, got %+v", rec)
	}
}

func TestComment_NoBotToken_Skipped(t *testing.T) {
	f := newWebhookFixture(t)
	empty, _ := credentials.New("", "")
	f.svc.Credentials = empty
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi")})

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if rec := f.record(t, "c1"); rec.Reason != domain.SkipNoCredential {
		t.Fatalf("expected no_credential, got %+v", rec)
	}
}

func TestComment_SiblingFailureIsolated(t *testing.T) {
	f := newWebhookFixture(t)
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi")})
	f.out.replyErr = func(id string) error {
		if id == "c1" {
			return errors.New("boom")
		}
		return nil
	}
	c2 := bob
	c2.commentID = "c2"

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob, c2), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if f.out.replyCount() != 1 || f.out.replies[0].commentID != "c2" {
		t.Fatalf("sibling should still be replied to: %+v", f.out.replies)
	}
}

func TestComment_StoreUnavailable_FailsClosed(t *testing.T) {
	f := newWebhookFixture(t)
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	down := kv.NewRedisStore(client)
	f.svc.Gate = gate.New(down)
	f.svc.Rules = repo.NewAutomationRepo(down)
	f.svc.Analytics = repo.NewAnalyticsRepo(down)

	err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), "")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if f.out.replyCount() != 0 {
		t.Fatalf("no outbound call may be made when the store is down")
	}
}

// ---------- DM on comment (private reply) ----------

func TestComment_PrivateReply_UsesCommentAddressingAndPageToken(t *testing.T) {
	f := newWebhookFixture(t)
	f.svc.Accounts = fakePageTokens{"acct": "page-token"}
	f.svc.CheckPermissions = true
	f.saveRule(t, "m1", domain.AutomationRule{
		CommentReplyTemplate: strp("hi"),
		AutoDMOnComment:      true,
		DMOnCommentMessage:   strp("Check your inbox {user}"),
	})

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if f.out.dmCount() != 1 {
		t.Fatalf("expected 1 private reply, got %d", f.out.dmCount())
	}
	dm := f.out.dms[0]
	if dm.to.CommentID != "c1" || dm.to.UserID != "" || dm.token != "page-token" || dm.text != "Check your inbox bob" || dm.action != domain.ActionPrivateReply {
		t.Fatalf("unexpected dm: %+v", dm)
	}
	if f.out.permChecks != 1 {
		t.Fatalf("expected a permission check")
	}
	if len(f.sleeper.waits) != 1 || f.sleeper.waits[0] != 5*time.Second {
		t.Fatalf("expected default 5s dm delay, got %v", f.sleeper.waits)
	}

	hist, _ := f.analytics.DMHistory(context.Background(), "acct", 10)
	if len(hist) != 1 || hist[0].Type != domain.DMTypeOnComment || hist[0].RecipientID != "u1" {
		t.Fatalf("unexpected dm history: %+v", hist)
	}
	events, _ := f.analytics.RecentEvents(context.Background(), domain.EventDMSentOnComment, 10)
	if len(events) != 1 {
		t.Fatalf("expected dm_sent_on_comment event")
	}
}

func TestComment_PrivateReply_MissingPermission(t *testing.T) {
	f := newWebhookFixture(t)
	f.svc.CheckPermissions = true
	f.out.permOK = false
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi"), AutoDMOnComment: true})

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if f.out.dmCount() != 0 {
		t.Fatalf("dm must not be sent without permission")
	}
	if f.out.replyCount() != 1 {
		t.Fatalf("public reply is unaffected")
	}
	events, _ := f.analytics.RecentEvents(context.Background(), domain.EventDMFailedOnComment, 10)
	if len(events) != 1 || events[0].Metadata["reason"] != "missing_permission" {
		t.Fatalf("expected dm_failed_on_comment, got %+v", events)
	}
}

func TestComment_PrivateReply_FailureTracked(t *testing.T) {
	f := newWebhookFixture(t)
	f.out.dmErr = &graph.APIError{Status: 400, Code: 3, Message: "no capability"}
	f.saveRule(t, "m1", domain.AutomationRule{CommentReplyTemplate: strp("hi"), AutoDMOnComment: true})

	if err := f.svc.HandleDelivery(context.Background(), commentPayload(bob), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if rec := f.record(t, "c1"); rec.Status != domain.ReplyCompleted {
		t.Fatalf("dm failure must not change the reply record: %+v", rec)
	}
	events, _ := f.analytics.RecentEvents(context.Background(), domain.EventDMFailedOnComment, 10)
	if len(events) != 1 {
		t.Fatalf("expected dm_failed_on_comment event")
	}
}

// ---------- direct messages ----------

func saveDMRule(t *testing.T, f *webhookFixture, r domain.DMAutomationRule) {
	t.Helper()
	if err := r.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := f.dmRules.Save(context.Background(), "acct", &r); err != nil {
		t.Fatalf("save dm rule: %v", err)
	}
}

func TestDM_FirstMatchingKeywordWins(t *testing.T) {
	f := newWebhookFixture(t)
	saveDMRule(t, f, domain.DMAutomationRule{KeywordResponses: []domain.KeywordResponse{
		{Keywords: []string{"price"}, Response: "It is 10€"},
		{Keywords: []string{"PRICE", "info"}, Response: "second"},
	}})

	if err := f.svc.HandleDelivery(context.Background(), dmPayload("acct", "u1", "mid1", "What's the Price?", true), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if f.out.dmCount() != 1 {
		t.Fatalf("expected one keyword reply, got %d", f.out.dmCount())
	}
	dm := f.out.dms[0]
	if dm.text != "It is 10€" || dm.to.UserID != "u1" || dm.action != domain.ActionDMKeyword {
		t.Fatalf("unexpected dm: %+v", dm)
	}
}

func TestDM_KeywordRateLimitPerSender(t *testing.T) {
	f := newWebhookFixture(t)
	f.svc.Limits.KeywordDMsPerSender = 1
	saveDMRule(t, f, domain.DMAutomationRule{KeywordResponses: []domain.KeywordResponse{{Keywords: []string{"hi"}, Response: "hello"}}})

	for i, mid := range []string{"a", "b"} {
		if err := f.svc.HandleDelivery(context.Background(), dmPayload("acct", "u1", mid, "hi", true), ""); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if f.out.dmCount() != 1 {
		t.Fatalf("expected 1 reply within the window, got %d", f.out.dmCount())
	}
}

func TestDM_WelcomeOnlyWithoutPriorMessage(t *testing.T) {
	f := newWebhookFixture(t)
	saveDMRule(t, f, domain.DMAutomationRule{
		WelcomeMessage:   &domain.WelcomeMessage{Enabled: true, Message: "Welcome!", DelaySeconds: 2},
		KeywordResponses: []domain.KeywordResponse{{Keywords: []string{"hi"}, Response: "hello"}},
	})

	if err := f.svc.HandleDelivery(context.Background(), dmPayload("acct", "u1", "m-1", "hi there", false), ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	if f.out.dmCount() != 2 {
		t.Fatalf("keyword and welcome both fire on a first message, got %d", f.out.dmCount())
	}
	if f.out.dms[1].text != "Welcome!" || f.out.dms[1].action != domain.ActionDMWelcome {
		t.Fatalf("unexpected welcome dm: %+v", f.out.dms[1])
	}
	if len(f.sleeper.waits) != 1 || f.sleeper.waits[0] != 2*time.Second {
		t.Fatalf("expected welcome delay, got %v", f.sleeper.waits)
	}

	if err := f.svc.HandleDelivery(context.Background(), dmPayload("acct", "u1", "m-2", "again", true), ""); err != nil {
		t.Fatalf("second: %v", err)
	}
	if f.out.dmCount() != 2 {
		t.Fatalf("no welcome when the thread has prior messages")
	}
}

func TestDM_DuplicateMidAndEchoIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	saveDMRule(t, f, domain.DMAutomationRule{KeywordResponses: []domain.KeywordResponse{{Keywords: []string{"hi"}, Response: "hello"}}})
	body := dmPayload("acct", "u1", "dup", "hi", true)

	for i := 0; i < 3; i++ {
		if err := f.svc.HandleDelivery(context.Background(), body, ""); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if f.out.dmCount() != 1 {
		t.Fatalf("expected one reply for a redelivered message, got %d", f.out.dmCount())
	}

	echo, _ := json.Marshal(domain.WebhookPayload{Object: "instagram", Entry: []domain.Entry{{
		ID: "acct",
		Messaging: []domain.MessagingEvent{
			{Sender: domain.Party{ID: "acct"}, Recipient: domain.Party{ID: "u1"}, Message: &domain.InboundDM{Mid: "e1", Text: "hi", IsEcho: true}},
			{Sender: domain.Party{ID: "u1"}, Recipient: domain.Party{ID: "acct"}, Delivery: &domain.DeliveryEvent{Mids: []string{"x"}}},
			{Sender: domain.Party{ID: "u1"}, Recipient: domain.Party{ID: "acct"}, Read: &domain.ReadEvent{Watermark: 1}},
		},
	}}})
	if err := f.svc.HandleDelivery(context.Background(), echo, ""); err != nil {
		t.Fatalf("echo delivery: %v", err)
	}
	if f.out.dmCount() != 1 {
		t.Fatalf("echoes and receipts must be ignored")
	}
}

func TestDM_NoRule_TracksReceivedOnly(t *testing.T) {
	f := newWebhookFixture(t)
	if err := f.svc.HandleDelivery(context.Background(), dmPayload("acct", "u1", "m", "price?", false), ""); err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}
	if f.out.dmCount() != 0 {
		t.Fatalf("no rule, no reply")
	}
	events, _ := f.analytics.RecentEvents(context.Background(), domain.EventDMReceived, 10)
	if len(events) != 1 || events[0].Metadata["senderId"] != "u1" {
		t.Fatalf("expected dm_received event, got %+v", events)
	}
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
