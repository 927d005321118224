package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
)

var errMeetingMissing = errors.New("meeting not found")

// fakeStore is an in-memory GuardStore with TTL semantics good enough for
// guard tests. Expiry only happens on read.
type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (s *fakeStore) expired(key string) bool {
	exp, ok := s.expires[key]
	return ok && !exp.IsZero() && time.Now().After(exp)
}

func (s *fakeStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok && !s.expired(key) {
		return false, nil
	}
	s.values[key] = value
	if ttl > 0 {
		s.expires[key] = time.Now().Add(ttl)
	} else {
		delete(s.expires, key)
	}
	return true, nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		delete(s.values, key)
		delete(s.expires, key)
	}
	return s.values[key], nil
}

func (s *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	if ttl > 0 {
		s.expires[key] = time.Now().Add(ttl)
	} else {
		delete(s.expires, key)
	}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	delete(s.expires, key)
	return nil
}

// memBroker is a synchronous in-memory Broker. Delayed messages become
// visible once their due time passes.
type memBroker struct {
	mu      sync.Mutex
	ready   []TaskMessage
	delayed []delayedMsg
	acked   []TaskMessage
}

type delayedMsg struct {
	msg TaskMessage
	due time.Time
}

func newMemBroker() *memBroker {
	return &memBroker{}
}

func (b *memBroker) Enqueue(ctx context.Context, msg TaskMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready = append(b.ready, msg)
	return nil
}

func (b *memBroker) EnqueueIn(ctx context.Context, msg TaskMessage, delay time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delayed = append(b.delayed, delayedMsg{msg: msg, due: time.Now().Add(delay)})
	return nil
}

func (b *memBroker) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.promoteLocked()
	if len(b.ready) == 0 {
		return nil, nil
	}
	msg := b.ready[0]
	b.ready = b.ready[1:]
	return &Delivery{Message: msg, Receipt: msg.TaskID.String()}, nil
}

func (b *memBroker) Ack(ctx context.Context, d *Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked = append(b.acked, d.Message)
	return nil
}

func (b *memBroker) promoteLocked() {
	now := time.Now()
	var remaining []delayedMsg
	for _, d := range b.delayed {
		if !d.due.After(now) {
			b.ready = append(b.ready, d.msg)
		} else {
			remaining = append(remaining, d)
		}
	}
	b.delayed = remaining
}

// promoteAll makes every delayed message visible immediately
func (b *memBroker) promoteAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.delayed {
		b.ready = append(b.ready, d.msg)
	}
	b.delayed = nil
}

func (b *memBroker) readyCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.promoteLocked()
	return len(b.ready)
}

func (b *memBroker) delayedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.delayed)
}

// fakeSink collects dead letter entries
type fakeSink struct {
	mu      sync.Mutex
	entries []DeadLetterEntry
}

func (s *fakeSink) Record(ctx context.Context, entry DeadLetterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// fakeMeetingRepo keeps meetings in a map and enforces the same
// compare-and-set transition rules as the real repository.
type fakeMeetingRepo struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (r *fakeMeetingRepo) add(m *entities.Meeting) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meetings[m.ID] = m
}

func (r *fakeMeetingRepo) Create(ctx context.Context, m *entities.Meeting) error {
	r.add(m)
	return nil
}

func (r *fakeMeetingRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, errMeetingMissing
	}
	copy := *m
	return &copy, nil
}

func (r *fakeMeetingRepo) List(ctx context.Context, limit, offset int) ([]*entities.Meeting, int64, error) {
	return nil, 0, nil
}

func (r *fakeMeetingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return false, nil
	}
	if !status.CanTransitionFrom(m.Status) {
		return false, nil
	}
	m.Status = status
	return true, nil
}

func (r *fakeMeetingRepo) SetDuration(ctx context.Context, id uuid.UUID, seconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meetings[id]; ok {
		m.DurationSeconds = &seconds
	}
	return nil
}

func (r *fakeMeetingRepo) status(id uuid.UUID) entities.MeetingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.meetings[id]; ok {
		return m.Status
	}
	return ""
}

// scriptedStage returns pre-programmed outcomes in order, recording calls
type scriptedStage struct {
	mu       sync.Mutex
	name     StageName
	outcomes []Outcome
	calls    int
}

func (s *scriptedStage) Name() StageName { return s.name }

func (s *scriptedStage) Execute(ctx context.Context, meetingID uuid.UUID) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx < len(s.outcomes) {
		return s.outcomes[idx]
	}
	return Success()
}

func (s *scriptedStage) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
