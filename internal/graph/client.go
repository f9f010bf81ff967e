// Package graph is a small client for the Instagram Graph API endpoints the
// automation uses: comment replies, direct messages (by user id or as a
// private reply to a comment), and the permission listing for a token.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the versioned Graph API root.
const DefaultBaseURL = "https://graph.facebook.com/v18.0"

// PermissionManageMessages is required for private replies.
const PermissionManageMessages = "instagram_manage_messages"

const maxErrorBody = 4 << 10

// Recipient addresses a DM either to a user id or, as a private reply,
// to a comment id. Exactly one field must be set.
type Recipient struct {
	UserID    string
	CommentID string
}

// MarshalJSON encodes the addressing mode the provider expects.
func (r Recipient) MarshalJSON() ([]byte, error) {
	if r.CommentID != "" {
		return json.Marshal(map[string]string{"comment_id": r.CommentID})
	}
	return json.Marshal(map[string]string{"id": r.UserID})
}

func (r Recipient) valid() bool { return (r.UserID == "") != (r.CommentID == "") }

// ReplyResult is the created reply.
type ReplyResult struct {
	ID string `json:"id"`
}

// DMResult is the sent message.
type DMResult struct {
	MessageID   string `json:"message_id"`
	RecipientID string `json:"recipient_id"`
}

// Client calls the Graph API over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New returns a client rooted at baseURL whose requests time out after timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SendReply posts a public reply under commentID.
func (c *Client) SendReply(ctx context.Context, token, commentID, text string) (ReplyResult, error) {
	var out ReplyResult
	body := map[string]string{"message": text}
	err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(commentID)+"/replies", token, body, &out)
	return out, err
}

// SendDirectMessage sends text from accountID to the recipient.
func (c *Client) SendDirectMessage(ctx context.Context, token, accountID string, to Recipient, text string) (DMResult, error) {
	var out DMResult
	if !to.valid() {
		return out, errors.New("graph: recipient needs exactly one of user id or comment id")
	}
	body := struct {
		Recipient Recipient         `json:"recipient"`
		Message   map[string]string `json:"message"`
	}{to, map[string]string{"text": text}}
	err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(accountID)+"/messages", token, body, &out)
	return out, err
}

// HasPermission reports whether token has perm granted.
func (c *Client) HasPermission(ctx context.Context, token, perm string) (bool, error) {
	var out struct {
		Data []struct {
			Permission string `json:"permission"`
			Status     string `json:"status"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/permissions", token, nil, &out); err != nil {
		return false, err
	}
	for _, p := range out.Data {
		if p.Permission == perm && p.Status == "granted" {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) (err error) {
	ctx, span := otel.Tracer("graph").Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("graph.path", path)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if token == "" {
		return ErrNoToken
	}

	var rdr io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	u := c.baseURL + path + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("graph %s %s: build request", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		// url.Error carries the full URL, token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("graph %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("graph %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env struct {
		Error *APIError `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		env.Error.Status = resp.StatusCode
		return env.Error
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
