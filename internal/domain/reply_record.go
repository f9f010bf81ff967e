package domain

import "time"

// ReplyStatus is the lifecycle state of a ReplyRecord.
type ReplyStatus string

const (
	// ReplyProcessing is written before any outbound call.
	ReplyProcessing ReplyStatus = "processing"
	// ReplyCompleted means the public reply was sent.
	ReplyCompleted ReplyStatus = "completed"
	// ReplySkipped means the comment was not acted on; see Reason.
	ReplySkipped ReplyStatus = "skipped"
	// ReplyErrorDuplicate means the provider reported an existing reply.
	ReplyErrorDuplicate ReplyStatus = "error_duplicate"
)

// Skip reasons stored on skipped records.
const (
	SkipNoRule       = "no_rule"
	SkipNoTemplate   = "no_template"
	SkipDailyLimit   = "daily_limit"
	SkipRateLimited  = "rate_limited"
	SkipSendFailed   = "send_failed"
	SkipNoCredential = "no_credential"
	SkipStoreError   = "store_error"
)

// ReplyRecord tracks how a comment was handled. It is stored under
// comment:replied:{commentId} with a TTL.
type ReplyRecord struct {
	Status    ReplyStatus `json:"status"`
	ReplyID   string      `json:"replyId,omitempty"`
	Message   string      `json:"message,omitempty"`
	MediaID   string      `json:"mediaId"`
	Username  string      `json:"username"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Handled reports whether the record blocks further processing. Skipped
// comments stay eligible so a redelivery can act once the cause is gone.
func (r *ReplyRecord) Handled() bool {
	return r != nil && r.Status != ReplySkipped
}

// Terminal reports whether the record reached a final state.
func (r *ReplyRecord) Terminal() bool {
	return r != nil && r.Status != ReplyProcessing
}
