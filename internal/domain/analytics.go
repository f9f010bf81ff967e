package domain

import "time"

// Analytics event types.
const (
	EventWebhookReceived     = "webhook_received"
	EventDMReceived          = "dm_received"
	EventCommentReplied      = "comment_replied"
	EventDMSentOnComment     = "dm_sent_on_comment"
	EventDMFailedOnComment   = "dm_failed_on_comment"
	EventAutomationCreated   = "automation_created"
	EventAutomationDeleted   = "automation_deleted"
	EventDMAutomationUpdated = "dm_automation_updated"
)

// DM kinds stored on DMRecord.Type.
const (
	DMTypeKeyword   = "auto_keyword"
	DMTypeWelcome   = "welcome"
	DMTypeOnComment = "auto_comment_dm"
)

// Event is a stored analytics event.
type Event struct {
	Type      string            `json:"type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// DMRecord is one sent DM kept in the per-account history.
type DMRecord struct {
	AccountID   string    `json:"userId"`
	RecipientID string    `json:"recipientId"`
	Message     string    `json:"message"`
	MessageID   string    `json:"message_id,omitempty"`
	Type        string    `json:"type"`
	Trigger     string    `json:"trigger,omitempty"`
	MediaID     string    `json:"mediaId,omitempty"`
	SentAt      time.Time `json:"sentAt"`
}

// Stats is a counter snapshot read from a stats hash.
type Stats map[string]int64

// AnalyticsSummary is returned by the analytics endpoint.
type AnalyticsSummary struct {
	Period string           `json:"period"`
	Date   string           `json:"date,omitempty"`
	Stats  Stats            `json:"stats,omitempty"`
	Days   map[string]Stats `json:"days,omitempty"`
	Events Stats            `json:"events,omitempty"`
}
