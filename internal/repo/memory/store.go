package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/services/matching"
)

type declaration struct {
	role     enums.SkillRole
	category string
	seq      int64
}

// Store keeps the queue, users and skill declarations in process memory. A transaction holds the
// store-wide lock for its whole lifetime and writes to a staging copy that is applied on success.
type Store struct {
	mu           sync.Mutex
	entries      map[int64]model.QueueEntry
	users        map[int64]model.User
	declarations map[int64][]declaration
	nextEntryID  int64
	nextDeclSeq  int64
}

func NewStore() *Store {
	return &Store{
		entries:      make(map[int64]model.QueueEntry),
		users:        make(map[int64]model.User),
		declarations: make(map[int64][]declaration),
	}
}

func (s *Store) PutUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *Store) AddDeclaration(userID int64, role enums.SkillRole, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDeclSeq++
	s.declarations[userID] = append(s.declarations[userID], declaration{
		role:     role,
		category: category,
		seq:      s.nextDeclSeq,
	})
}

func (s *Store) FindUser(_ context.Context, userID int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.User{}, matching.ErrUserNotFound
	}
	return user, nil
}

// DeclarationsFor returns the earliest declaration per role.
func (s *Store) DeclarationsFor(_ context.Context, userID int64) (model.Declarations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out model.Declarations
	var teachSeq, learnSeq int64
	for _, d := range s.declarations[userID] {
		switch d.role {
		case enums.SkillRoleTeach:
			if out.Teach == "" || d.seq < teachSeq {
				out.Teach, teachSeq = d.category, d.seq
			}
		case enums.SkillRoleLearn:
			if out.Learn == "" || d.seq < learnSeq {
				out.Learn, learnSeq = d.category, d.seq
			}
		}
	}
	return out, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx matching.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:   s,
		entries: make(map[int64]model.QueueEntry),
		users:   make(map[int64]model.User),
		nextID:  s.nextEntryID,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for id, entry := range tx.entries {
		s.entries[id] = entry
	}
	for id, user := range tx.users {
		s.users[id] = user
	}
	s.nextEntryID = tx.nextID
	return nil
}

func (s *Store) FindByID(_ context.Context, entryID int64) (model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return model.QueueEntry{}, matching.ErrEntryNotFound
	}
	return cloneEntry(entry), nil
}

func (s *Store) FindActiveByUser(_ context.Context, userID int64) (model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		best  model.QueueEntry
		found bool
	)
	for _, entry := range s.entries {
		if !visibleAsActive(entry, userID) {
			continue
		}
		if !found || activeRank(entry) < activeRank(best) ||
			(activeRank(entry) == activeRank(best) && entry.ID > best.ID) {
			best = entry
			found = true
		}
	}
	if !found {
		return model.QueueEntry{}, matching.ErrEntryNotFound
	}
	return cloneEntry(best), nil
}

func (s *Store) ScanPending(_ context.Context) ([]model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.QueueEntry, 0)
	for _, entry := range s.entries {
		if entry.Status == enums.QueueStatusPending && !entry.HasPartner() {
			out = append(out, cloneEntry(entry))
		}
	}
	sortByRequestedAt(out)
	return out, nil
}

func (s *Store) ScanStale(_ context.Context, cutoff time.Time) ([]model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.QueueEntry, 0)
	for _, entry := range s.entries {
		if entry.Status.Active() && entry.RequestedAt.Before(cutoff) {
			out = append(out, cloneEntry(entry))
		}
	}
	sortByRequestedAt(out)
	return out, nil
}

func (s *Store) CountMatchedBetween(_ context.Context, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, entry := range s.entries {
		if entry.Status != enums.QueueStatusMatched && entry.Status != enums.QueueStatusConfirmed {
			continue
		}
		if entry.MatchedAt == nil || entry.MatchedAt.Before(from) || !entry.MatchedAt.Before(to) {
			continue
		}
		count++
	}
	return count, nil
}

// Entries returns every entry ordered by id.
func (s *Store) Entries() []model.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.QueueEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, cloneEntry(entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryTx struct {
	store   *Store
	entries map[int64]model.QueueEntry
	users   map[int64]model.User
	nextID  int64
}

func (t *memoryTx) LockUser(_ context.Context, userID int64) (model.User, error) {
	if user, ok := t.users[userID]; ok {
		return user, nil
	}
	user, ok := t.store.users[userID]
	if !ok {
		return model.User{}, matching.ErrUserNotFound
	}
	return user, nil
}

func (t *memoryTx) LockEntry(_ context.Context, entryID int64) (model.QueueEntry, error) {
	entry, ok := t.entry(entryID)
	if !ok {
		return model.QueueEntry{}, matching.ErrEntryNotFound
	}
	return cloneEntry(entry), nil
}

func (t *memoryTx) ActiveEntryForUser(_ context.Context, userID int64) (model.QueueEntry, bool, error) {
	var (
		best  model.QueueEntry
		found bool
	)
	for id := range t.allIDs() {
		entry, _ := t.entry(id)
		if !entry.Status.Active() || !entry.IsParty(userID) {
			continue
		}
		if !found || entry.ID > best.ID {
			best = entry
			found = true
		}
	}
	return cloneEntry(best), found, nil
}

func (t *memoryTx) InsertEntry(_ context.Context, requesterID int64, requestedAt time.Time) (model.QueueEntry, error) {
	if requesterID <= 0 {
		return model.QueueEntry{}, matching.ErrValidation
	}
	t.nextID++
	entry := model.QueueEntry{
		ID:               t.nextID,
		RequesterID:      requesterID,
		Status:           enums.QueueStatusPending,
		RequesterConsent: enums.ConsentUnset,
		PartnerConsent:   enums.ConsentUnset,
		RequestedAt:      requestedAt.UTC(),
	}
	t.entries[entry.ID] = entry
	return cloneEntry(entry), nil
}

func (t *memoryTx) UpdateEntry(_ context.Context, entry model.QueueEntry) error {
	if _, ok := t.entry(entry.ID); !ok {
		return matching.ErrEntryNotFound
	}
	if _, err := enums.ParseQueueStatus(string(entry.Status)); err != nil {
		return fmt.Errorf("%w: %v", matching.ErrValidation, err)
	}
	t.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (t *memoryTx) SetAvailability(ctx context.Context, available bool, userIDs ...int64) error {
	for _, userID := range userIDs {
		user, err := t.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		user.AvailableForMatching = available
		t.users[userID] = user
	}
	return nil
}

func (t *memoryTx) entry(id int64) (model.QueueEntry, bool) {
	if entry, ok := t.entries[id]; ok {
		return entry, true
	}
	entry, ok := t.store.entries[id]
	return entry, ok
}

func (t *memoryTx) allIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(t.store.entries)+len(t.entries))
	for id := range t.store.entries {
		ids[id] = struct{}{}
	}
	for id := range t.entries {
		ids[id] = struct{}{}
	}
	return ids
}

func visibleAsActive(entry model.QueueEntry, userID int64) bool {
	switch entry.Status {
	case enums.QueueStatusPending:
		return entry.RequesterID == userID
	case enums.QueueStatusMatched, enums.QueueStatusConfirmed:
		return entry.IsParty(userID)
	case enums.QueueStatusCanceled:
		return false
	default:
		return false
	}
}

func activeRank(entry model.QueueEntry) int {
	if entry.Status.Active() {
		return 0
	}
	return 1
}

func sortByRequestedAt(entries []model.QueueEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RequestedAt.Equal(entries[j].RequestedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].RequestedAt.Before(entries[j].RequestedAt)
	})
}

func cloneEntry(entry model.QueueEntry) model.QueueEntry {
	if entry.PartnerID != nil {
		v := *entry.PartnerID
		entry.PartnerID = &v
	}
	if entry.SharedCategory != nil {
		v := *entry.SharedCategory
		entry.SharedCategory = &v
	}
	if entry.MatchedAt != nil {
		v := *entry.MatchedAt
		entry.MatchedAt = &v
	}
	if entry.TerminatedAt != nil {
		v := *entry.TerminatedAt
		entry.TerminatedAt = &v
	}
	return entry
}
