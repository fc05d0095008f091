package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/postledger/postledger/internal/model"
)

func newBackup(f *fakeStore) *BackupService {
	return NewBackupService(f, NewScopeLocks(), time.Second, 10*time.Minute)
}

func seedLedger(t *testing.T, f *fakeStore, scope string, n int) {
	t.Helper()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		seedPost(t, f, scope, fmt.Sprintf("user-%d", i%3), fmt.Sprintf("char-%d", i%2), base.Add(time.Duration(i)*time.Hour), 600, 2)
	}
}

func TestExportSnapshot(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 5)
	seedLedger(t, f, "chat-2", 2)

	b := newBackup(f)
	snap, err := b.Export(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snap.ChatScope != "chat-1" || snap.TotalPosts != 5 || len(snap.Posts) != 5 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.CreatedAt.IsZero() {
		t.Fatal("snapshot missing generation timestamp")
	}
	for _, p := range snap.Posts {
		if p.ChatScope != "chat-1" {
			t.Fatalf("foreign scope leaked into snapshot: %+v", p)
		}
	}
}

func TestExportEmptyLedger(t *testing.T) {
	b := newBackup(newFakeStore())
	snap, err := b.Export(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snap.TotalPosts != 0 || snap.Posts == nil {
		t.Fatalf("empty export must carry an empty posts list, got %+v", snap)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 7)
	b := newBackup(f)
	stats := newStats(f)
	ctx := context.Background()

	before, err := stats.Query(ctx, "chat-1", PeriodAllTime)
	if err != nil {
		t.Fatalf("pre-export query: %v", err)
	}

	snap, err := b.Export(ctx, "chat-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	summary, err := b.BeginRestore(ctx, "chat-1", raw)
	if err != nil {
		t.Fatalf("BeginRestore: %v", err)
	}
	if summary.TotalPosts != 7 || summary.Token == "" || summary.Sample == nil {
		t.Fatalf("summary = %+v", summary)
	}

	report, err := b.ConfirmRestore(ctx, "chat-1", summary.Token)
	if err != nil {
		t.Fatalf("ConfirmRestore: %v", err)
	}
	if report.DeletedCount != 7 || report.RestoredCount != 7 || report.ErrorCount != 0 || report.TotalInSnapshot != 7 {
		t.Fatalf("report = %+v", report)
	}

	after, err := stats.Query(ctx, "chat-1", PeriodAllTime)
	if err != nil {
		t.Fatalf("post-restore query: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("aggregated totals changed across round-trip:\nbefore=%v\nafter=%v", dump(before), dump(after))
	}
}

func dump(users []*model.AggregatedUser) string {
	b, _ := json.Marshal(users)
	return string(b)
}

func TestBeginRestoreValidation(t *testing.T) {
	b := newBackup(newFakeStore())
	ctx := context.Background()

	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"missing chat_scope", `{"created_at":"2025-05-01T00:00:00Z","posts":[]}`},
		{"missing created_at", `{"chat_scope":"chat-1","posts":[]}`},
		{"missing posts", `{"chat_scope":"chat-1","created_at":"2025-05-01T00:00:00Z"}`},
		{"scope mismatch", `{"chat_scope":"chat-9","created_at":"2025-05-01T00:00:00Z","posts":[]}`},
		{"count mismatch", `{"chat_scope":"chat-1","created_at":"2025-05-01T00:00:00Z","total_posts":3,"posts":[]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := b.BeginRestore(ctx, "chat-1", []byte(c.raw))
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
			// Failed validation leaves no pending state behind.
			if _, err := b.ConfirmRestore(ctx, "chat-1", "anything"); !errors.Is(err, model.ErrConfirmation) {
				t.Fatalf("pending state retained after failed validation: %v", err)
			}
		})
	}
}

func TestConfirmRestoreGuards(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 3)
	b := newBackup(f)
	ctx := context.Background()

	// No pending restore at all.
	if _, err := b.ConfirmRestore(ctx, "chat-1", "tok"); !errors.Is(err, model.ErrConfirmation) {
		t.Fatalf("confirm without begin: %v", err)
	}

	snap, _ := b.Export(ctx, "chat-1")
	raw, _ := json.Marshal(snap)
	summary, err := b.BeginRestore(ctx, "chat-1", raw)
	if err != nil {
		t.Fatalf("BeginRestore: %v", err)
	}

	// Wrong token aborts with no state change, and the pending restore
	// survives for a correct retry.
	if _, err := b.ConfirmRestore(ctx, "chat-1", "wrong"); !errors.Is(err, model.ErrConfirmation) {
		t.Fatalf("wrong token: %v", err)
	}
	// Token for one scope must not confirm another.
	if _, err := b.ConfirmRestore(ctx, "chat-2", summary.Token); !errors.Is(err, model.ErrConfirmation) {
		t.Fatalf("cross-scope token: %v", err)
	}
	if f.deleteCalls != 0 {
		t.Fatalf("delete phase ran without a valid confirmation (%d calls)", f.deleteCalls)
	}

	if _, err := b.ConfirmRestore(ctx, "chat-1", summary.Token); err != nil {
		t.Fatalf("valid confirm: %v", err)
	}
	// The snapshot is consumed exactly once.
	if _, err := b.ConfirmRestore(ctx, "chat-1", summary.Token); !errors.Is(err, model.ErrConfirmation) {
		t.Fatalf("token replay: %v", err)
	}
}

func TestConfirmRestoreExpiredToken(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 2)
	b := newBackup(f)
	ctx := context.Background()

	snap, _ := b.Export(ctx, "chat-1")
	raw, _ := json.Marshal(snap)
	summary, err := b.BeginRestore(ctx, "chat-1", raw)
	if err != nil {
		t.Fatalf("BeginRestore: %v", err)
	}

	b.now = func() time.Time { return summary.ExpiresAt.Add(time.Second) }
	if _, err := b.ConfirmRestore(ctx, "chat-1", summary.Token); !errors.Is(err, model.ErrConfirmation) {
		t.Fatalf("expired token: %v", err)
	}
	if f.deleteCalls != 0 {
		t.Fatal("delete phase ran on an expired confirmation")
	}
}

func TestRestorePartialFailure(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 4)
	b := newBackup(f)
	ctx := context.Background()

	snap, _ := b.Export(ctx, "chat-1")
	// Corrupt one record: points no longer agree with the char count.
	snap.Posts[2].Points = 99
	raw, _ := json.Marshal(snap)

	summary, err := b.BeginRestore(ctx, "chat-1", raw)
	if err != nil {
		t.Fatalf("BeginRestore: %v", err)
	}
	report, err := b.ConfirmRestore(ctx, "chat-1", summary.Token)
	if err != nil {
		t.Fatalf("ConfirmRestore: %v", err)
	}
	if report.RestoredCount != 3 || report.ErrorCount != 1 || report.TotalInSnapshot != 4 {
		t.Fatalf("report = %+v", report)
	}
	if f.count() != 3 {
		t.Fatalf("ledger holds %d posts, want the 3 valid records", f.count())
	}
}

func TestRestorePerRecordInsertFailure(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 3)
	b := newBackup(f)
	ctx := context.Background()

	snap, _ := b.Export(ctx, "chat-1")
	raw, _ := json.Marshal(snap)
	summary, err := b.BeginRestore(ctx, "chat-1", raw)
	if err != nil {
		t.Fatalf("BeginRestore: %v", err)
	}

	failing := snap.Posts[1].SubmittedAt
	f.insertHook = func(p *model.Post) error {
		if p.SubmittedAt.Equal(failing) {
			return errors.New("constraint violation")
		}
		return nil
	}
	report, err := b.ConfirmRestore(ctx, "chat-1", summary.Token)
	if err != nil {
		t.Fatalf("ConfirmRestore: %v", err)
	}
	if report.RestoredCount != 2 || report.ErrorCount != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestRestoreFailsWhenDeletePhaseFails(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 2)
	b := newBackup(f)
	ctx := context.Background()

	snap, _ := b.Export(ctx, "chat-1")
	raw, _ := json.Marshal(snap)
	summary, err := b.BeginRestore(ctx, "chat-1", raw)
	if err != nil {
		t.Fatalf("BeginRestore: %v", err)
	}

	f.deleteErr = errors.New("store unreachable")
	if _, err := b.ConfirmRestore(ctx, "chat-1", summary.Token); err == nil {
		t.Fatal("delete-phase failure must abort the restore")
	}
	if f.count() != 2 {
		t.Fatalf("ledger mutated despite failed delete phase: %d posts", f.count())
	}
}

func TestRestoreAbortBetweenRecords(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 5)
	b := newBackup(f)

	snap, _ := b.Export(context.Background(), "chat-1")
	raw, _ := json.Marshal(snap)
	summary, err := b.BeginRestore(context.Background(), "chat-1", raw)
	if err != nil {
		t.Fatalf("BeginRestore: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	inserted := 0
	f.insertHook = func(*model.Post) error {
		inserted++
		if inserted == 2 {
			cancel() // host shutdown mid-batch
		}
		return nil
	}
	report, err := b.ConfirmRestore(ctx, "chat-1", summary.Token)
	if err != nil {
		t.Fatalf("ConfirmRestore: %v", err)
	}
	if report.RestoredCount != 2 || report.TotalInSnapshot != 5 {
		t.Fatalf("partial report = %+v", report)
	}
}

func TestDiscardRestore(t *testing.T) {
	f := newFakeStore()
	seedLedger(t, f, "chat-1", 1)
	b := newBackup(f)
	ctx := context.Background()

	if b.DiscardRestore("chat-1") {
		t.Fatal("nothing to discard yet")
	}
	snap, _ := b.Export(ctx, "chat-1")
	raw, _ := json.Marshal(snap)
	summary, _ := b.BeginRestore(ctx, "chat-1", raw)
	if !b.DiscardRestore("chat-1") {
		t.Fatal("discard must report the dropped pending restore")
	}
	if _, err := b.ConfirmRestore(ctx, "chat-1", summary.Token); !errors.Is(err, model.ErrConfirmation) {
		t.Fatalf("confirm after discard: %v", err)
	}
	if f.count() != 1 {
		t.Fatalf("discard must not touch the ledger: %d posts", f.count())
	}
}
