package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/addonloader/internal/domain"
)

type fakeStore struct {
	due     []domain.Schedule
	updated []domain.Schedule
}

func (f *fakeStore) ListDue(_ context.Context, now time.Time, _ int) ([]domain.Schedule, error) {
	var out []domain.Schedule
	for _, s := range f.due {
		if s.IsDue(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, s *domain.Schedule) error {
	f.updated = append(f.updated, *s)
	return nil
}

type fakePublisher struct {
	requests []domain.AddonRequest
	err      error
}

func (f *fakePublisher) PublishInstallRequest(_ context.Context, req domain.AddonRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func dueSchedule(now time.Time) domain.Schedule {
	past := now.Add(-time.Minute)
	return domain.Schedule{
		ID:          uuid.New(),
		Name:        "daily aptechka",
		IntervalSec: 3600,
		Timezone:    "UTC",
		Enabled:     true,
		NextDueAt:   &past,
		Request: domain.AddonRequest{
			Title:           "Aptechka",
			AddonToken:      "aptechka",
			AddonsDirectory: "/wow/AddOns",
		},
	}
}

func TestTick_PublishesAndAdvances(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{due: []domain.Schedule{dueSchedule(now)}}
	pub := &fakePublisher{}

	s := New(Config{Schedules: store, Publisher: pub})
	s.now = func() time.Time { return now }

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(pub.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(pub.requests))
	}
	req := pub.requests[0]
	if req.CorrelationID == "" {
		t.Error("each scheduled request needs a fresh correlation id")
	}
	if req.AddonToken != "aptechka" {
		t.Errorf("request template not copied: %+v", req)
	}

	if len(store.updated) != 1 {
		t.Fatalf("expected schedule update, got %d", len(store.updated))
	}
	updated := store.updated[0]
	if want := now.Add(time.Hour); !updated.NextDueAt.Equal(want) {
		t.Errorf("expected next due %v, got %v", want, updated.NextDueAt)
	}
	if updated.LastCorrelationID != req.CorrelationID {
		t.Error("last correlation id should be recorded")
	}
}

func TestTick_PublishFailureKeepsDue(t *testing.T) {
	now := time.Now()
	store := &fakeStore{due: []domain.Schedule{dueSchedule(now)}}
	pub := &fakePublisher{err: errors.New("broker down")}

	s := New(Config{Schedules: store, Publisher: pub})
	s.now = func() time.Time { return now }

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(store.updated) != 0 {
		t.Error("schedule should not advance when publishing failed")
	}
}

func TestTick_InvalidScheduleDisabled(t *testing.T) {
	now := time.Now()
	sched := dueSchedule(now)
	sched.IntervalSec = 0
	sched.CronExpr = "not a cron"
	store := &fakeStore{due: []domain.Schedule{sched}}
	pub := &fakePublisher{}

	s := New(Config{Schedules: store, Publisher: pub})
	s.now = func() time.Time { return now }

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.requests) != 0 {
		t.Error("invalid schedule should not publish")
	}
	if len(store.updated) != 1 || store.updated[0].Enabled {
		t.Error("invalid schedule should be disabled")
	}
}

func TestTick_NothingDue(t *testing.T) {
	now := time.Now()
	sched := dueSchedule(now)
	future := now.Add(time.Hour)
	sched.NextDueAt = &future

	store := &fakeStore{due: []domain.Schedule{sched}}
	pub := &fakePublisher{}
	s := New(Config{Schedules: store, Publisher: pub})
	s.now = func() time.Time { return now }

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.requests) != 0 || len(store.updated) != 0 {
		t.Error("nothing should happen before next_due_at")
	}
}

func TestCalculateNextDue_Cron(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "0 9 * * *", Timezone: "UTC"}
	from := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestCalculateNextDue_CronTimezone(t *testing.T) {
	if _, err := time.LoadLocation("Europe/Moscow"); err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	sched := &domain.Schedule{CronExpr: "0 9 * * *", Timezone: "Europe/Moscow"}
	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatal(err)
	}
	// 09:00 MSK = 06:00 UTC
	if want := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestCalculateNextDue_NoTrigger(t *testing.T) {
	_, err := CalculateNextDue(&domain.Schedule{}, time.Now())
	if !errors.Is(err, ErrNoTrigger) {
		t.Errorf("expected ErrNoTrigger, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := domain.AddonRequest{AddonToken: "x", AddonsDirectory: "/d"}

	tests := []struct {
		name  string
		sched domain.Schedule
		want  error
	}{
		{"cron ok", domain.Schedule{CronExpr: "*/30 * * * *", Request: valid}, nil},
		{"interval ok", domain.Schedule{IntervalSec: 3600, Request: valid}, nil},
		{"no trigger", domain.Schedule{Request: valid}, ErrNoTrigger},
		{"bad cron", domain.Schedule{CronExpr: "every day", Request: valid}, ErrInvalidCron},
		{"short interval", domain.Schedule{IntervalSec: 5, Request: valid}, ErrInvalidInterval},
		{"bad timezone", domain.Schedule{IntervalSec: 3600, Timezone: "Mars/Olympus", Request: valid}, ErrInvalidTimezone},
		{"bad request", domain.Schedule{IntervalSec: 3600}, domain.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.sched)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// --- Elector ---

type fakeSession struct {
	pingErr  error
	released int
}

func (f *fakeSession) Ping(context.Context) error { return f.pingErr }

func (f *fakeSession) Release(context.Context) { f.released++ }

func TestElector_AcquiresOnce(t *testing.T) {
	session := &fakeSession{}
	acquired := 0
	e := NewElector(func(context.Context) (LockSession, error) {
		acquired++
		return session, nil
	}, nil)

	for i := 0; i < 3; i++ {
		if !e.IsLeader(context.Background()) {
			t.Fatalf("tick %d: expected leader", i)
		}
	}
	if acquired != 1 {
		t.Errorf("expected lock to be taken once, got %d", acquired)
	}

	e.Resign(context.Background())
	if session.released != 1 {
		t.Errorf("expected session released on resign, got %d", session.released)
	}
}

func TestElector_LostSessionDropsLeadership(t *testing.T) {
	first := &fakeSession{}
	second := &fakeSession{}
	sessions := []*fakeSession{first, second}
	e := NewElector(func(context.Context) (LockSession, error) {
		s := sessions[0]
		sessions = sessions[1:]
		return s, nil
	}, nil)

	if !e.IsLeader(context.Background()) {
		t.Fatal("expected leader")
	}

	// соединение оборвалось: тик пропускается, сессия освобождается
	first.pingErr = errors.New("conn closed")
	if e.IsLeader(context.Background()) {
		t.Fatal("expected leadership to be dropped after failed ping")
	}
	if first.released != 1 {
		t.Errorf("expected lost session released, got %d", first.released)
	}

	// на следующем тике lock берётся заново
	if !e.IsLeader(context.Background()) {
		t.Fatal("expected leadership to be re-acquired")
	}
}

func TestElector_NotLeader(t *testing.T) {
	e := NewElector(func(context.Context) (LockSession, error) { return nil, nil }, nil)
	if e.IsLeader(context.Background()) {
		t.Fatal("expected follower when lock is held elsewhere")
	}

	e = NewElector(func(context.Context) (LockSession, error) { return nil, errors.New("db down") }, nil)
	if e.IsLeader(context.Background()) {
		t.Fatal("expected follower on lock error")
	}
}
