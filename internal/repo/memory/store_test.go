package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/services/matching"
)

func TestWithTxDiscardsChangesOnError(t *testing.T) {
	store := NewStore()
	store.PutUser(model.User{ID: 1, Nickname: "u1", Cohort: enums.CohortYoung, AvailableForMatching: true})

	boom := errors.New("boom")
	err := store.WithTx(context.Background(), func(ctx context.Context, tx matching.Tx) error {
		if _, err := tx.InsertEntry(ctx, 1, time.Now()); err != nil {
			return err
		}
		if err := tx.SetAvailability(ctx, false, 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if len(store.Entries()) != 0 {
		t.Fatalf("expected no entries after rollback")
	}
	user, _ := store.FindUser(context.Background(), 1)
	if !user.AvailableForMatching {
		t.Fatalf("expected availability to be untouched after rollback")
	}

	entry, err := matching.Enqueue(context.Background(), store, 1, time.Now())
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if entry.ID != 1 {
		t.Fatalf("expected id sequence to restart after rollback, got %d", entry.ID)
	}
}

func TestDeclarationsForUsesEarliestPerRole(t *testing.T) {
	store := NewStore()
	store.AddDeclaration(1, enums.SkillRoleLearn, "Cooking")
	store.AddDeclaration(1, enums.SkillRoleTeach, "IT")
	store.AddDeclaration(1, enums.SkillRoleLearn, "Music")

	decl, err := store.DeclarationsFor(context.Background(), 1)
	if err != nil {
		t.Fatalf("declarations: %v", err)
	}
	if decl.Learn != "Cooking" || decl.Teach != "IT" {
		t.Fatalf("unexpected declarations: %+v", decl)
	}

	empty, _ := store.DeclarationsFor(context.Background(), 2)
	if empty.Complete() {
		t.Fatalf("expected incomplete declarations for unknown user")
	}
}

func TestScanPendingOrdersByRequestedAt(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	for id := int64(1); id <= 3; id++ {
		store.PutUser(model.User{ID: id, Cohort: enums.CohortYoung})
	}

	if _, err := matching.Enqueue(context.Background(), store, 1, now); err != nil {
		t.Fatalf("enqueue 1: %v", err)
	}
	if _, err := matching.Enqueue(context.Background(), store, 2, now.Add(-time.Hour)); err != nil {
		t.Fatalf("enqueue 2: %v", err)
	}
	if _, err := matching.Enqueue(context.Background(), store, 3, now.Add(-30*time.Minute)); err != nil {
		t.Fatalf("enqueue 3: %v", err)
	}

	pending, err := store.ScanPending(context.Background())
	if err != nil {
		t.Fatalf("scan pending: %v", err)
	}
	want := []int64{2, 3, 1}
	for i, entry := range pending {
		if entry.RequesterID != want[i] {
			t.Fatalf("position %d: expected requester %d, got %d", i, want[i], entry.RequesterID)
		}
	}
}

func TestCountMatchedBetween(t *testing.T) {
	store := NewStore()
	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	inside := day.Add(10 * time.Hour)
	outside := day.Add(-time.Hour)
	partner := int64(9)

	store.entries[1] = model.QueueEntry{ID: 1, Status: enums.QueueStatusMatched, PartnerID: &partner, MatchedAt: &inside}
	store.entries[2] = model.QueueEntry{ID: 2, Status: enums.QueueStatusConfirmed, PartnerID: &partner, MatchedAt: &inside}
	store.entries[3] = model.QueueEntry{ID: 3, Status: enums.QueueStatusCanceled, PartnerID: &partner, MatchedAt: &inside}
	store.entries[4] = model.QueueEntry{ID: 4, Status: enums.QueueStatusMatched, PartnerID: &partner, MatchedAt: &outside}

	count, err := store.CountMatchedBetween(context.Background(), day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
}

func TestLoadSeedAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := []byte(`
users:
  - id: 1
    nickname: alice
    birth_year: 1995
    teach: [IT]
    learn: [Cooking]
  - id: 2
    nickname: bob
    cohort: senior
    teach: [Cooking]
    learn: [IT]
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	store := NewStore()
	if err := store.Apply(seed); err != nil {
		t.Fatalf("apply seed: %v", err)
	}

	alice, err := store.FindUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("find alice: %v", err)
	}
	if alice.Cohort != enums.CohortYoung || !alice.AvailableForMatching {
		t.Fatalf("unexpected alice: %+v", alice)
	}
	bob, _ := store.FindUser(context.Background(), 2)
	if bob.Cohort != enums.CohortSenior {
		t.Fatalf("expected bob to be senior, got %s", bob.Cohort)
	}

	missing, err := LoadSeed(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil || len(missing.Users) != 0 {
		t.Fatalf("expected empty seed for missing file, got %+v err=%v", missing, err)
	}
}

func TestApplyRejectsInvalidSeed(t *testing.T) {
	tests := []struct {
		name string
		user SeedUser
	}{
		{name: "no id", user: SeedUser{Nickname: "x"}},
		{name: "no nickname", user: SeedUser{ID: 1}},
		{name: "blank category", user: SeedUser{ID: 1, Nickname: "x", Teach: []string{" "}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := NewStore().Apply(Seed{Users: []SeedUser{tc.user}}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
