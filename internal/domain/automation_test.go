package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestAutomationRule_Normalize_Defaults(t *testing.T) {
	r := AutomationRule{CommentReplyTemplate: strPtr("  Thanks {username}!  ")}
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if r.SchemaVersion != SchemaVersion {
		t.Fatalf("schemaVersion = %d; want %d", r.SchemaVersion, SchemaVersion)
	}
	if r.ReplyTemplate() != "Thanks {username}!" {
		t.Fatalf("template not trimmed: %q", r.ReplyTemplate())
	}
	if r.Limit() != DefaultDailyLimit {
		t.Fatalf("daily limit default = %d", r.Limit())
	}
	if r.DMDelay() != 5*time.Second || r.ResponseDelay() != 0 {
		t.Fatalf("delays: dm=%v response=%v", r.DMDelay(), r.ResponseDelay())
	}
	if r.DMTemplate() != DefaultDMOnCommentPrompt {
		t.Fatalf("dm template fallback = %q", r.DMTemplate())
	}
}

func TestAutomationRule_Normalize_Rejects(t *testing.T) {
	neg := -1
	big := MaxDelaySeconds + 1
	zero := 0
	cases := map[string]AutomationRule{
		"future schema":      {SchemaVersion: SchemaVersion + 1},
		"negative delay":     {ResponseDelaySeconds: &neg},
		"delay over cap":     {DMOnCommentDelaySeconds: &big},
		"zero daily limit":   {DailyLimit: &zero},
		"blank dm message":   {AutoDMOnComment: true, DMOnCommentMessage: strPtr("   ")},
		"template too long":  {CommentReplyTemplate: strPtr(strings.Repeat("é", MaxTemplateRunes+1))},
		"dm message too big": {DMOnCommentMessage: strPtr(strings.Repeat("x", MaxTemplateRunes+1))},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			err := r.Normalize()
			if !errors.Is(err, ErrInvalidRule) {
				t.Fatalf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestAutomationRule_Normalize_BlankOptionalsBecomeNil(t *testing.T) {
	r := AutomationRule{CommentReplyTemplate: strPtr(" "), OwnerUserID: strPtr("  ")}
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if r.CommentReplyTemplate != nil || r.OwnerUserID != nil || r.Owner() != "" {
		t.Fatalf("blank optionals should be dropped: %+v", r)
	}
}

func TestAutomationRule_JSONIsCamelCase(t *testing.T) {
	limit := 3
	r := AutomationRule{SchemaVersion: 1, AutoDMOnComment: true, DailyLimit: &limit}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, k := range []string{`"schemaVersion":1`, `"autoDmOnComment":true`, `"dailyLimit":3`} {
		if !strings.Contains(string(b), k) {
			t.Fatalf("missing %s in %s", k, b)
		}
	}
}

func TestDMAutomationRule_Normalize(t *testing.T) {
	r := DMAutomationRule{
		WelcomeMessage: &WelcomeMessage{Enabled: true, Message: " hi ", DelaySeconds: 3},
		KeywordResponses: []KeywordResponse{
			{Keywords: []string{" price ", "", "cost"}, Response: " A "},
		},
	}
	if err := r.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if r.WelcomeMessage.Message != "hi" || r.WelcomeDelay() != 3*time.Second {
		t.Fatalf("welcome not normalized: %+v", r.WelcomeMessage)
	}
	kr := r.KeywordResponses[0]
	if len(kr.Keywords) != 2 || kr.Keywords[0] != "price" || kr.Response != "A" {
		t.Fatalf("keywords not normalized: %+v", kr)
	}
}

func TestDMAutomationRule_Normalize_Rejects(t *testing.T) {
	cases := map[string]DMAutomationRule{
		"enabled welcome without text": {WelcomeMessage: &WelcomeMessage{Enabled: true}},
		"welcome delay over cap":       {WelcomeMessage: &WelcomeMessage{Message: "x", DelaySeconds: MaxDelaySeconds + 1}},
		"no keywords":                  {KeywordResponses: []KeywordResponse{{Keywords: []string{" "}, Response: "A"}}},
		"no response":                  {KeywordResponses: []KeywordResponse{{Keywords: []string{"a"}}}},
		"future schema":                {SchemaVersion: 2},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			if err := r.Normalize(); !errors.Is(err, ErrInvalidRule) {
				t.Fatalf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestReplyRecord_HandledAndTerminal(t *testing.T) {
	var nilRec *ReplyRecord
	if nilRec.Handled() || nilRec.Terminal() {
		t.Fatalf("nil record must not count as handled")
	}
	for status, handled := range map[ReplyStatus]bool{
		ReplyProcessing:     true,
		ReplyCompleted:      true,
		ReplyErrorDuplicate: true,
		ReplySkipped:        false,
	} {
		r := &ReplyRecord{Status: status}
		if r.Handled() != handled {
			t.Fatalf("%s: Handled() = %v; want %v", status, r.Handled(), handled)
		}
		if r.Terminal() != (status != ReplyProcessing) {
			t.Fatalf("%s: Terminal() mismatch", status)
		}
	}
}

func TestCommentValue_CommentKey(t *testing.T) {
	if (CommentValue{ID: "a", CommentID: "b"}).CommentKey() != "a" {
		t.Fatalf("id should win")
	}
	if (CommentValue{CommentID: "b"}).CommentKey() != "b" {
		t.Fatalf("comment_id fallback")
	}
}
