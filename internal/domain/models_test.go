package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (Account{}).TableName() != "accounts" {
		t.Fatalf("Account.TableName() = %q; want %q", (Account{}).TableName(), "accounts")
	}
	if (ActionLog{}).TableName() != "action_logs" {
		t.Fatalf("ActionLog.TableName() = %q; want %q", (ActionLog{}).TableName(), "action_logs")
	}
	if (Idempotency{}).TableName() != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q; want %q", (Idempotency{}).TableName(), "idempotency")
	}
}

func TestMigrations_IndexesAndConstraints(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Account{}, &ActionLog{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	if !m.HasIndex(&ActionLog{}, "idx_account_actions") {
		t.Fatalf("expected index idx_account_actions on action_logs")
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_resource_key") {
		t.Fatalf("expected unique index ux_user_resource_key on idempotency")
	}

	ok := ActionLog{ID: "a1", AccountID: "acct", Action: ActionCommentReply, Status: ActionSent, CreatedAt: time.Now()}
	if err := db.Create(&ok).Error; err != nil {
		t.Fatalf("insert valid action log: %v", err)
	}
	bad := ActionLog{ID: "a2", AccountID: "acct", Action: ActionCommentReply, Status: "pending", CreatedAt: time.Now()}
	if err := db.Create(&bad).Error; err == nil {
		t.Fatalf("expected CHECK constraint violation for status=pending")
	}

	now := time.Now().UTC()
	first := Idempotency{ID: "i1", UserID: "u", Resource: "m1", Key: "k", Status: 200, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("insert idempotency: %v", err)
	}
	dup := Idempotency{ID: "i2", UserID: "u", Resource: "m1", Key: "k", Status: 200, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, resource, key)")
	}
}

func TestAccount_PageTokenNotSerialized(t *testing.T) {
	a := Account{ID: "1", PageToken: "secret"}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "secret") {
		t.Fatalf("page token leaked into JSON: %s", b)
	}
}
