package domain

import (
	"time"

	"gorm.io/gorm"
)

// Account is a connected Instagram business account. The page token is used
// for private replies; the bot credential is the fallback when it is empty.
//
// Fields:
//   - ID: Instagram business account id (primary key).
//   - PageID / PageName: linked Facebook page.
//   - Username: Instagram handle, informational.
//   - PageToken: page access token; never serialized to API clients.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Account struct {
	ID        string         `json:"id"         gorm:"type:varchar(64);primaryKey"`
	PageID    string         `json:"page_id"    gorm:"type:varchar(64);index"`
	PageName  string         `json:"page_name"  gorm:"type:varchar(255)"`
	Username  string         `json:"username"   gorm:"type:varchar(255)"`
	PageToken string         `json:"-"          gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// Outbound action kinds recorded in the action log.
const (
	ActionCommentReply = "comment_reply"
	ActionPrivateReply = "private_reply"
	ActionDMKeyword    = "dm_keyword"
	ActionDMWelcome    = "dm_welcome"
)

// Action log outcomes.
const (
	ActionSent   = "sent"
	ActionFailed = "failed"
)

// ActionLog is the audit row written for every outbound Graph API call.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - AccountID: business account the call was made for (indexed with CreatedAt).
//   - Action: one of the Action* constants.
//   - TargetID: comment id or recipient id addressed by the call.
//   - Status: "sent" or "failed" (enforced by DB constraint).
//   - ProviderID: reply/message id returned by the provider on success.
//   - HTTPStatus / ErrorCode / ErrorMessage: provider failure details.
type ActionLog struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	AccountID    string    `json:"account_id"    gorm:"type:varchar(64);not null;index:idx_account_actions,priority:1"`
	Action       string    `json:"action"        gorm:"type:varchar(32);not null"`
	TargetID     string    `json:"target_id"     gorm:"type:varchar(128)"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;check:status IN ('sent','failed')"`
	ProviderID   string    `json:"provider_id,omitempty"   gorm:"type:varchar(128)"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	ErrorCode    int       `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_account_actions,priority:2"`
}

// TableName returns the database table name for ActionLog.
func (ActionLog) TableName() string { return "action_logs" }
