// Package services – ActionExecutor
//
// ActionExecutor is the single path for outbound Graph API calls. Every call
// is audited in the SQL action log, counted in outbound_actions_total, and
// on failure logged with the provider code and operator guidance. Provider
// errors are returned unchanged so callers can classify them.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/graph"
)

// GraphAPI is the provider surface used by ActionExecutor.
type GraphAPI interface {
	SendReply(ctx context.Context, token, commentID, text string) (graph.ReplyResult, error)
	SendDirectMessage(ctx context.Context, token, accountID string, to graph.Recipient, text string) (graph.DMResult, error)
	HasPermission(ctx context.Context, token, perm string) (bool, error)
}

// ActionLogRepo defines the repository contract for the outbound audit trail.
type ActionLogRepo interface {
	// CreateActionLog inserts one audit row.
	CreateActionLog(ctx context.Context, db *gorm.DB, l *domain.ActionLog) error

	// CountActionLogs returns the number of rows for an account.
	CountActionLogs(ctx context.Context, db *gorm.DB, accountID string) (int64, error)

	// ListActionLogsPage returns a page of rows, newest first.
	ListActionLogsPage(ctx context.Context, db *gorm.DB, accountID string, offset, limit int) ([]domain.ActionLog, error)
}

// ActionExecutor sends replies and DMs and records the outcome.
type ActionExecutor struct {
	Graph GraphAPI
	DB    *gorm.DB
	Logs  ActionLogRepo
}

// NewActionExecutor wires an executor.
func NewActionExecutor(g GraphAPI, db *gorm.DB, logs ActionLogRepo) *ActionExecutor {
	return &ActionExecutor{Graph: g, DB: db, Logs: logs}
}

// SendReply posts text as a public reply to commentID on behalf of accountID.
func (e *ActionExecutor) SendReply(ctx context.Context, token, accountID, commentID, text string) (graph.ReplyResult, error) {
	ctx, span := otel.Tracer("services/ActionExecutor").Start(ctx, "SendReply",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("comment.id", commentID),
		),
	)
	defer span.End()

	res, err := e.Graph.SendReply(ctx, token, commentID, text)
	e.audit(ctx, accountID, domain.ActionCommentReply, commentID, res.ID, err)
	return res, err
}

// SendDirectMessage sends text from accountID to the recipient. action is
// one of the domain.Action* kinds and only labels the audit row and metric.
func (e *ActionExecutor) SendDirectMessage(ctx context.Context, token, accountID string, to graph.Recipient, text, action string) (graph.DMResult, error) {
	target := to.UserID
	if to.CommentID != "" {
		target = to.CommentID
	}
	ctx, span := otel.Tracer("services/ActionExecutor").Start(ctx, "SendDirectMessage",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("action", action),
		),
	)
	defer span.End()

	res, err := e.Graph.SendDirectMessage(ctx, token, accountID, to, text)
	e.audit(ctx, accountID, action, target, res.MessageID, err)
	return res, err
}

// HasPermission checks a token's granted permission.
func (e *ActionExecutor) HasPermission(ctx context.Context, token, perm string) (bool, error) {
	return e.Graph.HasPermission(ctx, token, perm)
}

func (e *ActionExecutor) audit(ctx context.Context, accountID, action, target, providerID string, sendErr error) {
	l := &domain.ActionLog{
		AccountID:  accountID,
		Action:     action,
		TargetID:   target,
		Status:     domain.ActionSent,
		ProviderID: providerID,
	}
	// account_id comes from the caller's context logger.
	logger := zerolog.Ctx(ctx).With().
		Str("action", action).
		Str("target_id", target).
		Logger()

	if sendErr != nil {
		l.Status = domain.ActionFailed
		l.ErrorMessage = sendErr.Error()
		ev := logger.Error().Err(sendErr)
		if apiErr, ok := graph.AsAPIError(sendErr); ok {
			l.HTTPStatus = apiErr.Status
			l.ErrorCode = apiErr.Code
			l.ErrorMessage = apiErr.Message
			ev = ev.Int("status", apiErr.Status).
				Int("code", apiErr.Code).
				Int("subcode", apiErr.Subcode).
				Str("kind", string(apiErr.Kind())).
				Str("fbtrace_id", apiErr.FBTraceID)
			if g := apiErr.Guidance(); g != "" {
				ev = ev.Str("guidance", g)
			}
		} else if errors.Is(sendErr, context.DeadlineExceeded) {
			ev = ev.Bool("timeout", true)
		}
		ev.Msg("outbound action failed")
	} else {
		logger.Info().Str("provider_id", providerID).Msg("outbound action sent")
	}
	outboundActions.WithLabelValues(action, l.Status).Inc()

	if e.Logs == nil || e.DB == nil {
		return
	}
	if err := e.Logs.CreateActionLog(ctx, e.DB, l); err != nil {
		logger.Warn().Err(err).Msg("action log write failed")
	}
}
