package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/boxtrail/transfer-system/internal/core/domain"
)

type stubAuditRepo struct {
	inserted  []*domain.TransitionEvent
	insertErr error
}

func (r *stubAuditRepo) InsertTransitionEvent(_ context.Context, event *domain.TransitionEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, event)
	return nil
}

type stubDedup struct {
	duplicate bool
	checkErr  error
	marked    int
}

func (d *stubDedup) IsDuplicate(_ context.Context, _, _ string, _ time.Time) (bool, error) {
	return d.duplicate, d.checkErr
}

func (d *stubDedup) Mark(_ context.Context, _, _ string, _ time.Time) error {
	d.marked++
	return nil
}

func auditEvent() domain.TransitionEvent {
	return domain.TransitionEvent{
		ShipmentLabel: "TR-0000AB12",
		Action:        domain.ActionSent,
		Timestamp:     time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Actor:         domain.Actor{ID: "u1", Name: "Ana"},
		BoxCount:      3,
	}
}

func TestAuditService_Process(t *testing.T) {
	repo := &stubAuditRepo{}
	dedup := &stubDedup{}
	svc := NewAuditService(repo, dedup, zerolog.Nop())

	if err := svc.Process(context.Background(), auditEvent()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(repo.inserted))
	}
	if repo.inserted[0].Action != domain.ActionSent || repo.inserted[0].BoxCount != 3 {
		t.Errorf("inserted event = %+v", repo.inserted[0])
	}
	if dedup.marked != 1 {
		t.Errorf("dedup marks = %d, want 1", dedup.marked)
	}
}

func TestAuditService_SkipsDuplicates(t *testing.T) {
	repo := &stubAuditRepo{}
	dedup := &stubDedup{duplicate: true}
	svc := NewAuditService(repo, dedup, zerolog.Nop())

	if err := svc.Process(context.Background(), auditEvent()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("duplicate event was inserted: %+v", repo.inserted)
	}
	if dedup.marked != 0 {
		t.Errorf("duplicate event was re-marked %d times", dedup.marked)
	}
}

func TestAuditService_ProcessesDespiteDedupFailure(t *testing.T) {
	repo := &stubAuditRepo{}
	dedup := &stubDedup{checkErr: errors.New("redis down")}
	svc := NewAuditService(repo, dedup, zerolog.Nop())

	// Dedup is best effort: a failing check must not lose the event.
	if err := svc.Process(context.Background(), auditEvent()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("inserted = %d, want 1", len(repo.inserted))
	}
}

func TestAuditService_ReturnsInsertError(t *testing.T) {
	wantErr := errors.New("mongo unavailable")
	repo := &stubAuditRepo{insertErr: wantErr}
	svc := NewAuditService(repo, &stubDedup{}, zerolog.Nop())

	if err := svc.Process(context.Background(), auditEvent()); !errors.Is(err, wantErr) {
		t.Errorf("got %v, want wrapped insert error", err)
	}
}
