// Package services – WebhookService
//
// WebhookService dispatches provider webhook deliveries. Each messaging or
// comment event in a delivery runs in its own goroutine; the delivery is
// answered once every event has finished. Events are isolated: a failed send
// is logged and counted and never aborts its siblings.
//
// Comment events follow a claim/decide/send/finalize sequence:
//
//  1. A SET NX marker on the comment id absorbs duplicate deliveries.
//  2. A non-skipped reply record absorbs replays after the marker expired.
//  3. The reply record is written as "processing" before any outbound call,
//     then finalized as completed, skipped (with a reason) or error_duplicate.
//
// If the key-value store cannot be reached, no outbound call is made and the
// delivery fails with ErrStoreUnavailable so the provider redelivers.
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-ig-automation/internal/config"
	"github.com/tbourn/go-ig-automation/internal/credentials"
	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/gate"
	"github.com/tbourn/go-ig-automation/internal/graph"
	"github.com/tbourn/go-ig-automation/internal/kv"
)

// AutomationLookup reads per-media automation rules.
type AutomationLookup interface {
	Get(ctx context.Context, mediaID string) (*domain.AutomationRule, error)
}

// DMAutomationLookup reads per-account DM automation rules.
type DMAutomationLookup interface {
	Get(ctx context.Context, accountID string) (*domain.DMAutomationRule, error)
}

// DedupGate is the dedup and rate gate contract.
type DedupGate interface {
	MarkIfFirstDelivery(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseDelivery(ctx context.Context, key string) error
	HasBeenHandled(ctx context.Context, commentID string) (bool, error)
	MarkHandled(ctx context.Context, commentID string, rec domain.ReplyRecord) error
	TryConsume(ctx context.Context, scope string, limit int, window time.Duration) (gate.Decision, error)
	TryConsumeDaily(ctx context.Context, scope string, limit int) (gate.DailyDecision, error)
}

// EventTracker records analytics.
type EventTracker interface {
	TrackEvent(ctx context.Context, ev domain.Event) error
	TrackCommentReplied(ctx context.Context, commentID string, at time.Time) error
	TrackDMSent(ctx context.Context, rec domain.DMRecord) error
}

// Outbound sends provider actions.
type Outbound interface {
	SendReply(ctx context.Context, token, accountID, commentID, text string) (graph.ReplyResult, error)
	SendDirectMessage(ctx context.Context, token, accountID string, to graph.Recipient, text, action string) (graph.DMResult, error)
	HasPermission(ctx context.Context, token, perm string) (bool, error)
}

// PageTokens resolves an account's page token ("" when unknown).
type PageTokens interface {
	PageToken(ctx context.Context, accountID string) (string, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WebhookService handles webhook verification and deliveries.
type WebhookService struct {
	Rules       AutomationLookup
	DMRules     DMAutomationLookup
	Gate        DedupGate
	Analytics   EventTracker
	Actions     Outbound
	Credentials credentials.Provider
	Accounts    PageTokens

	Webhook          config.WebhookConfig
	Limits           config.LimitsConfig
	CheckPermissions bool

	Sleep Sleeper
	Now   func() time.Time
}

// VerifySubscription answers the provider's subscription handshake and
// returns the challenge to echo.
func (s *WebhookService) VerifySubscription(mode, token, challenge string) (string, error) {
	if mode == "" || token == "" || challenge == "" {
		return "", ErrMissingVerifyParams
	}
	if mode != "subscribe" || s.Webhook.VerifyToken == "" ||
		!hmac.Equal([]byte(token), []byte(s.Webhook.VerifyToken)) {
		return "", ErrVerifyTokenMismatch
	}
	return challenge, nil
}

// VerifySignature checks X-Hub-Signature-256 ("sha256=<hex>") against body.
// It is a no-op when no app secret is configured.
func (s *WebhookService) VerifySignature(body []byte, header string) error {
	if s.Webhook.AppSecret == "" {
		return nil
	}
	sig, ok := strings.CutPrefix(strings.TrimSpace(header), "sha256=")
	if !ok {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(s.Webhook.AppSecret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// HandleDelivery verifies, decodes and dispatches one webhook delivery. It
// returns after every event has been processed.
func (s *WebhookService) HandleDelivery(ctx context.Context, body []byte, signature string) error {
	ctx, span := otel.Tracer("services/WebhookService").Start(ctx, "HandleDelivery")
	defer span.End()

	if err := s.VerifySignature(body, signature); err != nil {
		return err
	}
	var payload domain.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !strings.EqualFold(payload.Object, s.Webhook.Object) {
		return ErrUnknownObject
	}
	span.SetAttributes(attribute.Int("webhook.entries", len(payload.Entry)))

	// A provider disconnect must not cancel delayed sends.
	ctx = context.WithoutCancel(ctx)

	s.track(ctx, domain.EventWebhookReceived, map[string]string{
		"object":  payload.Object,
		"entries": fmt.Sprint(len(payload.Entry)),
	})

	var g errgroup.Group
	g.SetLimit(max(s.Webhook.Concurrency, 1))
	for _, entry := range payload.Entry {
		entry := entry
		for _, ev := range entry.Messaging {
			ev := ev
			g.Go(func() error { return s.handleMessaging(ctx, entry.ID, ev) })
		}
		for _, ch := range entry.Changes {
			ch := ch
			g.Go(func() error { return s.handleChange(ctx, entry.ID, ch) })
		}
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// ---- comments ----

func (s *WebhookService) handleChange(ctx context.Context, accountID string, ch domain.Change) error {
	if ch.Field != domain.FieldComments && ch.Field != domain.FieldLiveComments {
		return nil
	}
	v := ch.Value
	commentID := v.CommentKey()
	logger := zerolog.Ctx(ctx).With().
		Str("account_id", accountID).
		Str("comment_id", commentID).
		Logger()

	if commentID == "" || v.Text == "" || v.From == nil || v.From.ID == "" {
		logger.Debug().Msg("comment event missing required fields; skipping")
		countEvent(kindComment, outcomeInvalid)
		return nil
	}
	if v.From.ID == accountID || (s.Webhook.BusinessAccountID != "" && v.From.ID == s.Webhook.BusinessAccountID) {
		logger.Debug().Str("from_id", v.From.ID).Msg("skipping own comment")
		countEvent(kindComment, outcomeSelf)
		return nil
	}

	ctx, span := otel.Tracer("services/WebhookService").Start(ctx, "HandleComment",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("comment.id", commentID),
		),
	)
	defer span.End()
	ctx = logger.WithContext(ctx)

	markerKey := gate.CommentDeliveryKey(commentID)
	first, err := s.Gate.MarkIfFirstDelivery(ctx, markerKey, s.Webhook.CommentDedupTTL)
	if err != nil {
		return s.storeFailure(ctx, kindComment, err)
	}
	if !first {
		logger.Debug().Msg("duplicate comment delivery")
		countEvent(kindComment, outcomeDuplicate)
		return nil
	}

	handled, err := s.Gate.HasBeenHandled(ctx, commentID)
	if err != nil {
		s.release(ctx, markerKey)
		return s.storeFailure(ctx, kindComment, err)
	}
	if handled {
		logger.Debug().Msg("comment already handled")
		countEvent(kindComment, outcomeDuplicate)
		return nil
	}

	rec := domain.ReplyRecord{Status: domain.ReplyProcessing, Username: v.From.Username}
	if v.Media != nil {
		rec.MediaID = v.Media.ID
	}
	if err := s.Gate.MarkHandled(ctx, commentID, rec); err != nil {
		s.release(ctx, markerKey)
		return s.storeFailure(ctx, kindComment, err)
	}

	return s.processComment(ctx, accountID, commentID, v, rec)
}

// processComment runs after the comment was claimed. Every return path
// leaves the reply record in a terminal state.
func (s *WebhookService) processComment(ctx context.Context, accountID, commentID string, v domain.CommentValue, rec domain.ReplyRecord) error {
	logger := zerolog.Ctx(ctx)
	mediaID := rec.MediaID

	skip := func(reason string) error {
		rec.Status = domain.ReplySkipped
		rec.Reason = reason
		logger.Info().Str("media_id", mediaID).Str("reason", reason).Msg("comment skipped")
		countEvent(kindComment, outcomeSkipped)
		return s.finalize(ctx, commentID, rec)
	}
	abort := func(err error) error {
		rec.Status = domain.ReplySkipped
		rec.Reason = domain.SkipStoreError
		_ = s.finalize(ctx, commentID, rec)
		s.release(ctx, gate.CommentDeliveryKey(commentID))
		return s.storeFailure(ctx, kindComment, err)
	}

	if mediaID == "" {
		return skip(domain.SkipNoRule)
	}
	rule, err := s.Rules.Get(ctx, mediaID)
	if err != nil {
		if errors.Is(err, kv.ErrUnavailable) {
			return abort(err)
		}
		logger.Error().Err(err).Str("media_id", mediaID).Msg("automation rule unreadable")
		return skip(domain.SkipNoRule)
	}
	if rule == nil {
		return skip(domain.SkipNoRule)
	}
	tpl := rule.ReplyTemplate()
	if tpl == "" {
		return skip(domain.SkipNoTemplate)
	}

	daily, err := s.Gate.TryConsumeDaily(ctx, "daily_limit:"+mediaID, rule.Limit())
	if err != nil {
		return abort(err)
	}
	if !daily.Allowed {
		return skip(domain.SkipDailyLimit)
	}
	rate, err := s.Gate.TryConsume(ctx, "reply:"+mediaID, s.Limits.RepliesPerMedia, s.Limits.Window)
	if err != nil {
		return abort(err)
	}
	if !rate.Allowed {
		return skip(domain.SkipRateLimited)
	}

	if d := rule.ResponseDelay(); d > 0 {
		if err := s.sleep(ctx, d); err != nil {
			return skip(domain.SkipSendFailed)
		}
	}

	token, err := s.Credentials.Current()
	if err != nil {
		logger.Error().Err(err).Msg("no bot token; cannot reply")
		return skip(domain.SkipNoCredential)
	}

	text := domain.Render(tpl, v.From.Username)
	res, err := s.Actions.SendReply(ctx, token, accountID, commentID, text)
	if err != nil {
		rec.Message = text
		if apiErr, ok := graph.AsAPIError(err); ok && apiErr.IsDuplicate() {
			rec.Status = domain.ReplyErrorDuplicate
			countEvent(kindComment, outcomeDuplicate)
			return s.finalize(ctx, commentID, rec)
		}
		// Let the provider's next redelivery retry.
		rec.Status = domain.ReplySkipped
		rec.Reason = domain.SkipSendFailed
		countEvent(kindComment, outcomeFailed)
		ferr := s.finalize(ctx, commentID, rec)
		s.release(ctx, gate.CommentDeliveryKey(commentID))
		return ferr
	}

	rec.Status = domain.ReplyCompleted
	rec.ReplyID = res.ID
	if rec.ReplyID == "" {
		rec.ReplyID = "unknown"
	}
	rec.Message = text
	if err := s.finalize(ctx, commentID, rec); err != nil {
		return err
	}
	countEvent(kindComment, outcomeReplied)

	if err := s.Analytics.TrackCommentReplied(ctx, commentID, s.now()); err != nil {
		logger.Warn().Err(err).Msg("track comment replied")
	}
	s.track(ctx, domain.EventCommentReplied, map[string]string{
		"commentId": commentID,
		"mediaId":   mediaID,
		"username":  v.From.Username,
	})

	if rule.AutoDMOnComment {
		s.privateReply(ctx, accountID, commentID, v.From, mediaID, rule)
	}
	return nil
}

// privateReply sends the DM-on-comment as a private reply addressed by
// comment id. Its outcome is tracked either way and never fails the event.
func (s *WebhookService) privateReply(ctx context.Context, accountID, commentID string, from *domain.CommentFrom, mediaID string, rule *domain.AutomationRule) {
	logger := zerolog.Ctx(ctx)
	meta := map[string]string{
		"commentId": commentID,
		"mediaId":   mediaID,
		"username":  from.Username,
	}
	fail := func(reason string) {
		meta["reason"] = reason
		s.track(ctx, domain.EventDMFailedOnComment, meta)
	}

	if d := rule.DMDelay(); d > 0 {
		if err := s.sleep(ctx, d); err != nil {
			fail("cancelled")
			return
		}
	}

	rate, err := s.Gate.TryConsume(ctx, "private_reply:"+accountID, s.Limits.PrivateRepliesPerAcct, s.Limits.Window)
	if err != nil {
		logger.Error().Err(err).Msg("private reply rate check failed")
		fail("store_error")
		return
	}
	if !rate.Allowed {
		logger.Warn().Int("limit", s.Limits.PrivateRepliesPerAcct).Msg("private reply rate limit reached")
		fail(domain.SkipRateLimited)
		return
	}

	token := s.accountToken(ctx, accountID)
	if token == "" {
		logger.Error().Msg("no page or bot token available for private reply")
		fail(domain.SkipNoCredential)
		return
	}
	if s.CheckPermissions {
		ok, err := s.Actions.HasPermission(ctx, token, graph.PermissionManageMessages)
		switch {
		case err != nil:
			// Unverifiable; let the send itself fail if the grant is missing.
			logger.Warn().Err(err).Msg("could not verify token permissions")
		case !ok:
			logger.Error().
				Str("permission", graph.PermissionManageMessages).
				Str("guidance", "request the permission through app review and re-authenticate").
				Msg("token lacks permission for private replies")
			fail("missing_permission")
			return
		}
	}

	text := domain.Render(rule.DMTemplate(), from.Username)
	res, err := s.Actions.SendDirectMessage(ctx, token, accountID, graph.Recipient{CommentID: commentID}, text, domain.ActionPrivateReply)
	if err != nil {
		fail(domain.SkipSendFailed)
		return
	}

	if err := s.Analytics.TrackDMSent(ctx, domain.DMRecord{
		AccountID:   accountID,
		RecipientID: from.ID,
		Message:     text,
		MessageID:   res.MessageID,
		Type:        domain.DMTypeOnComment,
		Trigger:     "comment_on_reel",
		MediaID:     mediaID,
		SentAt:      s.now(),
	}); err != nil {
		logger.Warn().Err(err).Msg("track dm sent")
	}
	meta["dmId"] = res.MessageID
	s.track(ctx, domain.EventDMSentOnComment, meta)
}

// ---- direct messages ----

func (s *WebhookService) handleMessaging(ctx context.Context, accountID string, ev domain.MessagingEvent) error {
	logger := zerolog.Ctx(ctx).With().
		Str("account_id", accountID).
		Str("sender_id", ev.Sender.ID).
		Logger()

	switch {
	case ev.Delivery != nil:
		logger.Debug().Int("mids", len(ev.Delivery.Mids)).Msg("delivery receipt")
		countEvent(kindReceipt, outcomeIgnored)
		return nil
	case ev.Read != nil:
		logger.Debug().Int64("watermark", ev.Read.Watermark).Msg("read receipt")
		countEvent(kindReceipt, outcomeIgnored)
		return nil
	case ev.Message == nil || ev.Message.IsEcho:
		countEvent(kindDM, outcomeIgnored)
		return nil
	}

	senderID := ev.Sender.ID
	if ev.Recipient.ID != "" {
		accountID = ev.Recipient.ID
	}
	if senderID == "" || senderID == accountID {
		countEvent(kindDM, outcomeSelf)
		return nil
	}

	ctx, span := otel.Tracer("services/WebhookService").Start(ctx, "HandleMessage",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("sender.id", senderID),
		),
	)
	defer span.End()
	ctx = logger.WithContext(ctx)

	var marker string
	if mid := ev.Message.Mid; mid != "" {
		marker = "webhook_dm_" + mid
		first, err := s.Gate.MarkIfFirstDelivery(ctx, marker, s.Webhook.CommentDedupTTL)
		if err != nil {
			return s.storeFailure(ctx, kindDM, err)
		}
		if !first {
			countEvent(kindDM, outcomeDuplicate)
			return nil
		}
	}

	s.track(ctx, domain.EventDMReceived, map[string]string{
		"senderId":    senderID,
		"recipientId": accountID,
		"messageId":   ev.Message.Mid,
	})

	rule, err := s.DMRules.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, kv.ErrUnavailable) {
			s.releaseIf(ctx, marker)
			return s.storeFailure(ctx, kindDM, err)
		}
		logger.Error().Err(err).Msg("dm automation unreadable")
		countEvent(kindDM, outcomeError)
		return nil
	}
	if rule == nil {
		countEvent(kindDM, outcomeIgnored)
		return nil
	}

	token := s.accountToken(ctx, accountID)
	if token == "" {
		logger.Error().Msg("no page or bot token available for DM")
		countEvent(kindDM, outcomeSkipped)
		return nil
	}

	if match, ok := domain.MatchKeyword(rule.KeywordResponses, ev.Message.Text); ok {
		d, err := s.Gate.TryConsume(ctx, "dm_reply:"+senderID, s.Limits.KeywordDMsPerSender, s.Limits.Window)
		if err != nil {
			s.releaseIf(ctx, marker)
			return s.storeFailure(ctx, kindDM, err)
		}
		if d.Allowed {
			s.sendDM(ctx, token, accountID, senderID, match.Response, domain.ActionDMKeyword, domain.DMTypeKeyword, "keyword")
		} else {
			logger.Warn().Int("limit", s.Limits.KeywordDMsPerSender).Msg("keyword reply rate limit reached")
			countEvent(kindDM, outcomeSkipped)
		}
	}

	if wm := rule.WelcomeMessage; wm != nil && wm.Enabled && ev.PriorMessage == nil {
		if d := rule.WelcomeDelay(); d > 0 {
			if err := s.sleep(ctx, d); err != nil {
				return nil
			}
		}
		s.sendDM(ctx, token, accountID, senderID, wm.Message, domain.ActionDMWelcome, domain.DMTypeWelcome, "first_message")
	}
	return nil
}

func (s *WebhookService) sendDM(ctx context.Context, token, accountID, recipientID, text, action, dmType, trigger string) {
	res, err := s.Actions.SendDirectMessage(ctx, token, accountID, graph.Recipient{UserID: recipientID}, text, action)
	if err != nil {
		countEvent(kindDM, outcomeFailed)
		return
	}
	countEvent(kindDM, outcomeHandled)
	if err := s.Analytics.TrackDMSent(ctx, domain.DMRecord{
		AccountID:   accountID,
		RecipientID: recipientID,
		Message:     text,
		MessageID:   res.MessageID,
		Type:        dmType,
		Trigger:     trigger,
		SentAt:      s.now(),
	}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("track dm sent")
	}
}

// ---- helpers ----

// accountToken prefers the account's page token and falls back to the bot token.
func (s *WebhookService) accountToken(ctx context.Context, accountID string) string {
	if s.Accounts != nil {
		tok, err := s.Accounts.PageToken(ctx, accountID)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("page token lookup failed; using bot token")
		} else if tok != "" {
			return tok
		}
	}
	tok, err := s.Credentials.Current()
	if err != nil {
		return ""
	}
	return tok
}

func (s *WebhookService) finalize(ctx context.Context, commentID string, rec domain.ReplyRecord) error {
	rec.Timestamp = s.now()
	if err := s.Gate.MarkHandled(ctx, commentID, rec); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("status", string(rec.Status)).Msg("finalize reply record")
		if errors.Is(err, kv.ErrUnavailable) {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return nil
	}
	return nil
}

func (s *WebhookService) release(ctx context.Context, markerKey string) {
	if err := s.Gate.ReleaseDelivery(ctx, markerKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("marker", markerKey).Msg("release dedup marker")
	}
}

func (s *WebhookService) releaseIf(ctx context.Context, markerKey string) {
	if markerKey != "" {
		s.release(ctx, markerKey)
	}
}

func (s *WebhookService) storeFailure(ctx context.Context, kind string, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg("store unavailable; event not processed")
	countEvent(kind, outcomeError)
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (s *WebhookService) track(ctx context.Context, typ string, meta map[string]string) {
	if err := s.Analytics.TrackEvent(ctx, domain.Event{Type: typ, Metadata: meta, Timestamp: s.now()}); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", typ).Msg("track event")
	}
}

func (s *WebhookService) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (s *WebhookService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
