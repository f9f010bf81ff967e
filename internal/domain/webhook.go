package domain

// WebhookPayload is the body of a provider webhook delivery.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the events for one business account (ID).
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging,omitempty"`
	Changes   []Change         `json:"changes,omitempty"`
}

// Party identifies a sender or recipient.
type Party struct {
	ID string `json:"id"`
}

// MessagingEvent is a DM-side event: an inbound message, an echo of the
// account's own send, or a delivery/read receipt.
type MessagingEvent struct {
	Sender       Party          `json:"sender"`
	Recipient    Party          `json:"recipient"`
	Timestamp    int64          `json:"timestamp"`
	Message      *InboundDM     `json:"message,omitempty"`
	PriorMessage *PriorMessage  `json:"prior_message,omitempty"`
	Delivery     *DeliveryEvent `json:"delivery,omitempty"`
	Read         *ReadEvent     `json:"read,omitempty"`
}

// InboundDM is the message body of a MessagingEvent.
type InboundDM struct {
	Mid    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo,omitempty"`
}

// PriorMessage is present when the thread already had messages.
type PriorMessage struct {
	Source     string `json:"source"`
	Identifier string `json:"identifier"`
}

// DeliveryEvent reports delivered message ids.
type DeliveryEvent struct {
	Mids      []string `json:"mids"`
	Watermark int64    `json:"watermark"`
}

// ReadEvent reports the read watermark.
type ReadEvent struct {
	Watermark int64 `json:"watermark"`
}

// Change fields the dispatcher acts on.
const (
	FieldComments     = "comments"
	FieldLiveComments = "live_comments"
)

// Change is a field-level change notification.
type Change struct {
	Field string       `json:"field"`
	Value CommentValue `json:"value"`
}

// CommentValue is the value of a comments/live_comments change.
type CommentValue struct {
	ID        string       `json:"id"`
	CommentID string       `json:"comment_id,omitempty"`
	Text      string       `json:"text"`
	From      *CommentFrom `json:"from,omitempty"`
	Media     *MediaRef    `json:"media,omitempty"`
}

// CommentFrom is the comment author.
type CommentFrom struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MediaRef identifies the commented media.
type MediaRef struct {
	ID               string `json:"id"`
	MediaProductType string `json:"media_product_type,omitempty"`
}

// CommentKey returns the comment id, accepting either field name.
func (v CommentValue) CommentKey() string {
	if v.ID != "" {
		return v.ID
	}
	return v.CommentID
}
