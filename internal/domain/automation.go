// Package domain defines the core models of the automation backend: the
// automation rules configured from the dashboard, the reply records and
// analytics entries written while handling webhooks, and the GORM-mapped
// account and action-log tables.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// SchemaVersion is the current version of stored automation rule JSON.
const SchemaVersion = 1

// Rule defaults and bounds enforced at the API boundary.
const (
	DefaultDailyLimit        = 100
	DefaultDMOnCommentDelay  = 5
	MaxDelaySeconds          = 300
	MaxTemplateRunes         = 1000
	MaxKeywordResponses      = 50
	DefaultDMOnCommentPrompt = "Thanks for commenting! 💬 Check out our exclusive content and special offers!"
)

// ErrInvalidRule is wrapped by every rule validation failure.
var ErrInvalidRule = errors.New("invalid automation rule")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}

// AutomationRule configures how comments on one media item are handled.
//
// Optional fields are pointers so "not provided" stays distinguishable from
// zero. Normalize fills defaults for those.
type AutomationRule struct {
	SchemaVersion int `json:"schemaVersion"`

	// CommentReplyTemplate supports {username} and {user} placeholders.
	CommentReplyTemplate *string `json:"commentReplyTemplate,omitempty"`

	AutoDMOnComment         bool    `json:"autoDmOnComment"`
	DMOnCommentMessage      *string `json:"dmOnCommentMessage,omitempty"`
	DMOnCommentDelaySeconds *int    `json:"dmOnCommentDelaySeconds,omitempty"`

	DailyLimit           *int `json:"dailyLimit,omitempty"`
	ResponseDelaySeconds *int `json:"responseDelaySeconds,omitempty"`

	OwnerUserID *string `json:"ownerUserId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize validates r and fills defaults in place.
func (r *AutomationRule) Normalize() error {
	if r.SchemaVersion == 0 {
		r.SchemaVersion = SchemaVersion
	}
	if r.SchemaVersion > SchemaVersion {
		return invalid("schemaVersion %d is not supported", r.SchemaVersion)
	}

	if r.CommentReplyTemplate != nil {
		tpl := strings.TrimSpace(*r.CommentReplyTemplate)
		if tpl == "" {
			r.CommentReplyTemplate = nil
		} else if utf8.RuneCountInString(tpl) > MaxTemplateRunes {
			return invalid("commentReplyTemplate exceeds %d characters", MaxTemplateRunes)
		} else {
			r.CommentReplyTemplate = &tpl
		}
	}
	if r.DMOnCommentMessage != nil {
		msg := strings.TrimSpace(*r.DMOnCommentMessage)
		if msg == "" {
			return invalid("dmOnCommentMessage must not be blank when provided")
		}
		if utf8.RuneCountInString(msg) > MaxTemplateRunes {
			return invalid("dmOnCommentMessage exceeds %d characters", MaxTemplateRunes)
		}
		r.DMOnCommentMessage = &msg
	}

	if err := delayField("dmOnCommentDelaySeconds", &r.DMOnCommentDelaySeconds, DefaultDMOnCommentDelay); err != nil {
		return err
	}
	if err := delayField("responseDelaySeconds", &r.ResponseDelaySeconds, 0); err != nil {
		return err
	}

	if r.DailyLimit == nil {
		r.DailyLimit = intPtr(DefaultDailyLimit)
	} else if *r.DailyLimit < 1 {
		return invalid("dailyLimit must be >= 1")
	}

	if r.OwnerUserID != nil {
		owner := strings.TrimSpace(*r.OwnerUserID)
		if owner == "" {
			r.OwnerUserID = nil
		} else {
			r.OwnerUserID = &owner
		}
	}
	return nil
}

// ReplyTemplate returns the public reply template, or "" when none is set.
func (r *AutomationRule) ReplyTemplate() string {
	if r.CommentReplyTemplate == nil {
		return ""
	}
	return *r.CommentReplyTemplate
}

// DMTemplate returns the private reply template, falling back to the
// default prompt.
func (r *AutomationRule) DMTemplate() string {
	if r.DMOnCommentMessage == nil || strings.TrimSpace(*r.DMOnCommentMessage) == "" {
		return DefaultDMOnCommentPrompt
	}
	return *r.DMOnCommentMessage
}

// Limit returns the configured daily limit or the default.
func (r *AutomationRule) Limit() int {
	if r.DailyLimit == nil || *r.DailyLimit < 1 {
		return DefaultDailyLimit
	}
	return *r.DailyLimit
}

// ResponseDelay returns the delay before the public reply.
func (r *AutomationRule) ResponseDelay() time.Duration {
	return seconds(r.ResponseDelaySeconds, 0)
}

// DMDelay returns the delay before the private reply.
func (r *AutomationRule) DMDelay() time.Duration {
	return seconds(r.DMOnCommentDelaySeconds, DefaultDMOnCommentDelay)
}

// Owner returns the owner index key, or "".
func (r *AutomationRule) Owner() string {
	if r.OwnerUserID == nil {
		return ""
	}
	return *r.OwnerUserID
}

// WelcomeMessage is sent once to senders opening a new conversation.
type WelcomeMessage struct {
	Enabled      bool   `json:"enabled"`
	Message      string `json:"message"`
	DelaySeconds int    `json:"delaySeconds"`
}

// KeywordResponse answers inbound DMs containing any of Keywords.
type KeywordResponse struct {
	Keywords []string `json:"keywords"`
	Response string   `json:"response"`
}

// DMAutomationRule configures inbound DM handling for one account.
type DMAutomationRule struct {
	SchemaVersion    int               `json:"schemaVersion"`
	WelcomeMessage   *WelcomeMessage   `json:"welcomeMessage,omitempty"`
	KeywordResponses []KeywordResponse `json:"keywordResponses,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Normalize validates r, drops blank keywords, and fills defaults in place.
func (r *DMAutomationRule) Normalize() error {
	if r.SchemaVersion == 0 {
		r.SchemaVersion = SchemaVersion
	}
	if r.SchemaVersion > SchemaVersion {
		return invalid("schemaVersion %d is not supported", r.SchemaVersion)
	}

	if w := r.WelcomeMessage; w != nil {
		w.Message = strings.TrimSpace(w.Message)
		if w.Enabled && w.Message == "" {
			return invalid("welcomeMessage.message is required when enabled")
		}
		if utf8.RuneCountInString(w.Message) > MaxTemplateRunes {
			return invalid("welcomeMessage.message exceeds %d characters", MaxTemplateRunes)
		}
		if w.DelaySeconds < 0 || w.DelaySeconds > MaxDelaySeconds {
			return invalid("welcomeMessage.delaySeconds must be between 0 and %d", MaxDelaySeconds)
		}
	}

	if len(r.KeywordResponses) > MaxKeywordResponses {
		return invalid("at most %d keyword responses are allowed", MaxKeywordResponses)
	}
	for i := range r.KeywordResponses {
		kr := &r.KeywordResponses[i]
		kept := kr.Keywords[:0]
		for _, k := range kr.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				kept = append(kept, k)
			}
		}
		kr.Keywords = kept
		kr.Response = strings.TrimSpace(kr.Response)
		if len(kr.Keywords) == 0 {
			return invalid("keywordResponses[%d] needs at least one keyword", i)
		}
		if kr.Response == "" {
			return invalid("keywordResponses[%d].response is required", i)
		}
		if utf8.RuneCountInString(kr.Response) > MaxTemplateRunes {
			return invalid("keywordResponses[%d].response exceeds %d characters", i, MaxTemplateRunes)
		}
	}
	return nil
}

// WelcomeDelay returns the welcome message delay.
func (r *DMAutomationRule) WelcomeDelay() time.Duration {
	if r.WelcomeMessage == nil || r.WelcomeMessage.DelaySeconds <= 0 {
		return 0
	}
	return time.Duration(r.WelcomeMessage.DelaySeconds) * time.Second
}

func delayField(name string, p **int, def int) error {
	if *p == nil {
		*p = intPtr(def)
		return nil
	}
	if v := **p; v < 0 || v > MaxDelaySeconds {
		return invalid("%s must be between 0 and %d", name, MaxDelaySeconds)
	}
	return nil
}

func seconds(p *int, def int) time.Duration {
	v := def
	if p != nil {
		v = *p
	}
	if v <= 0 {
		return 0
	}
	return time.Duration(v) * time.Second
}

func intPtr(v int) *int { return &v }
