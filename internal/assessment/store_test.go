package assessment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"accessibility-insights/background/internal/assessment/domain"
	"accessibility-insights/background/internal/storage"
	"accessibility-insights/background/internal/telemetry"
)

type publishCall struct {
	event string
	tabID int
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (f *fakePublisher) PublishTelemetry(ctx context.Context, eventName string, payload telemetry.Payload, tabID int, includeURLAndTitle bool) error {
	f.calls = append(f.calls, publishCall{event: eventName, tabID: tabID})
	return f.err
}

// failingStore fails every Set.
type failingStore struct{ storage.Store }

func (failingStore) Set(ctx context.Context, items map[string]any) error {
	return errors.New("disk full")
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore, *fakePublisher) {
	t.Helper()
	persisted := storage.NewMemoryStore()
	pub := &fakePublisher{}
	s := NewStore(DefaultProvider(), persisted, pub, nil, nil)
	n := 0
	s.newID = func() string {
		n++
		return "inst-" + string(rune('0'+n))
	}
	return s, persisted, pub
}

func TestStore_ChangeRequirementStatus(t *testing.T) {
	s, persisted, pub := newTestStore(t)
	ctx := context.Background()

	err := s.ChangeRequirementStatus(ctx, 7, ChangeStatusPayload{TestType: "keyboard", Requirement: "noKeyboardTraps", Status: domain.StatusPass})
	if err != nil {
		t.Fatalf("ChangeRequirementStatus: %v", err)
	}
	if got := s.Snapshot().Requirement("keyboard", "noKeyboardTraps").Status; got != domain.StatusPass {
		t.Errorf("status = %v, want PASS", got)
	}

	var stored domain.Data
	found, err := storage.GetJSON(ctx, persisted, storage.KeyAssessmentStore, &stored)
	if err != nil || !found {
		t.Fatalf("persisted state: found=%v err=%v", found, err)
	}
	if stored.Requirement("keyboard", "noKeyboardTraps").Status != domain.StatusPass {
		t.Errorf("persisted status = %v", stored.Requirement("keyboard", "noKeyboardTraps").Status)
	}
	if diff := cmp.Diff([]publishCall{{EventChangeRequirementStatus, 7}}, pub.calls, cmp.AllowUnexported(publishCall{})); diff != "" {
		t.Errorf("telemetry mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UnknownRequirement(t *testing.T) {
	s, persisted, pub := newTestStore(t)
	err := s.ChangeRequirementStatus(context.Background(), 1, ChangeStatusPayload{TestType: "keyboard", Requirement: "nope", Status: domain.StatusFail})
	if !errors.Is(err, ErrUnknownRequirement) {
		t.Fatalf("err = %v, want ErrUnknownRequirement", err)
	}
	if persisted.Len() != 0 || len(pub.calls) != 0 {
		t.Error("failed mutation must not persist or publish")
	}
	if len(s.Snapshot().Tests) != 0 {
		t.Error("failed mutation must not change state")
	}
}

func TestStore_FailureInstanceLifecycle(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	base := InstancePayload{TestType: "color", Requirement: "useOfColor"}

	add := base
	add.Description = "red text only"
	id1, err := s.AddFailureInstance(ctx, 1, add)
	if err != nil {
		t.Fatalf("AddFailureInstance: %v", err)
	}
	id2, err := s.AddFailureInstance(ctx, 1, add)
	if err != nil {
		t.Fatalf("AddFailureInstance: %v", err)
	}
	rs := s.Snapshot().Requirement("color", "useOfColor")
	if rs.Status != domain.StatusFail || len(rs.Instances) != 2 {
		t.Fatalf("after add: %+v", rs)
	}

	edit := base
	edit.ID, edit.Description, edit.Selector = id1, "legend uses color", "#legend"
	if err := s.EditFailureInstance(ctx, 1, edit); err != nil {
		t.Fatalf("EditFailureInstance: %v", err)
	}
	want := &domain.FailureInstance{ID: id1, Description: "legend uses color", Selector: "#legend"}
	if diff := cmp.Diff(want, s.Snapshot().Requirement("color", "useOfColor").Instances[id1]); diff != "" {
		t.Errorf("edited instance mismatch (-want +got):\n%s", diff)
	}

	remove := base
	remove.ID = id1
	if err := s.RemoveFailureInstance(ctx, 1, remove); err != nil {
		t.Fatalf("RemoveFailureInstance: %v", err)
	}
	if got := s.Snapshot().Requirement("color", "useOfColor").Status; got != domain.StatusFail {
		t.Errorf("status with one instance left = %v, want FAIL", got)
	}
	remove.ID = id2
	if err := s.RemoveFailureInstance(ctx, 1, remove); err != nil {
		t.Fatalf("RemoveFailureInstance: %v", err)
	}
	rs = s.Snapshot().Requirement("color", "useOfColor")
	if rs.Status != domain.StatusUnknown || rs.Instances != nil {
		t.Errorf("after removing last instance: %+v", rs)
	}

	if err := s.RemoveFailureInstance(ctx, 1, remove); !errors.Is(err, ErrInstanceNotFound) {
		t.Errorf("removing twice err = %v, want ErrInstanceNotFound", err)
	}
	edit.ID = "missing"
	if err := s.EditFailureInstance(ctx, 1, edit); !errors.Is(err, ErrInstanceNotFound) {
		t.Errorf("edit missing err = %v, want ErrInstanceNotFound", err)
	}
}

func TestStore_PassClearsInstancesAndUndo(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := s.AddFailureInstance(ctx, 1, InstancePayload{TestType: "keyboard", Requirement: "focusVisible", Description: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ChangeRequirementStatus(ctx, 1, ChangeStatusPayload{TestType: "keyboard", Requirement: "focusVisible", Status: domain.StatusPass}); err != nil {
		t.Fatal(err)
	}
	if rs := s.Snapshot().Requirement("keyboard", "focusVisible"); len(rs.Instances) != 0 {
		t.Errorf("PASS should clear instances, got %v", rs.Instances)
	}
	if err := s.UndoRequirementStatusChange(ctx, 1, RequirementPayload{TestType: "keyboard", Requirement: "focusVisible"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Requirement("keyboard", "focusVisible").Status; got != domain.StatusUnknown {
		t.Errorf("after undo status = %v", got)
	}
}

func TestStore_Reset(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	for _, p := range []ChangeStatusPayload{
		{TestType: "keyboard", Requirement: "keyboardNavigation", Status: domain.StatusPass},
		{TestType: "adaptableContent", Requirement: "reflow", Status: domain.StatusFail},
	} {
		if err := s.ChangeRequirementStatus(ctx, 1, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ResetTestType(ctx, 1, TestTypePayload{TestType: "keyboard"}); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if _, ok := snap.Tests["keyboard"]; ok {
		t.Error("keyboard results should be reset")
	}
	if snap.Requirement("adaptableContent", "reflow") == nil {
		t.Error("other assessments should be kept")
	}
	if err := s.ResetTestType(ctx, 1, TestTypePayload{TestType: "bogus"}); !errors.Is(err, ErrUnknownRequirement) {
		t.Errorf("reset unknown err = %v", err)
	}
	if err := s.ResetAll(ctx, 1, telemetry.Payload{}); err != nil {
		t.Fatal(err)
	}
	if len(s.Snapshot().Tests) != 0 {
		t.Error("ResetAll should clear everything")
	}
}

func TestStore_PersistFailureKeepsState(t *testing.T) {
	s := NewStore(DefaultProvider(), failingStore{storage.NewMemoryStore()}, nil, nil, nil)
	err := s.ChangeRequirementStatus(context.Background(), 1, ChangeStatusPayload{TestType: "keyboard", Requirement: "noKeyboardTraps", Status: domain.StatusFail})
	if err == nil {
		t.Fatal("expected persist error")
	}
	if len(s.Snapshot().Tests) != 0 {
		t.Error("state must not change when persisting fails")
	}
}

func TestStore_TelemetryErrorDoesNotFailMutation(t *testing.T) {
	s, _, pub := newTestStore(t)
	pub.err = errors.New("tab lookup failed")
	var notified int
	s.OnChange(func(*domain.Data) { notified++ })
	if err := s.ResetAll(context.Background(), 3, telemetry.Payload{}); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if notified != 1 {
		t.Errorf("listeners notified %d times, want 1", notified)
	}
}

func TestStore_InitialStateIsCopied(t *testing.T) {
	initial := domain.NewData()
	initial.Tests["keyboard"] = map[string]*domain.RequirementStatus{"focusVisible": {Status: domain.StatusPass}}
	s := NewStore(DefaultProvider(), storage.NewMemoryStore(), nil, initial, nil)
	initial.Tests["keyboard"]["focusVisible"].Status = domain.StatusFail
	if got := s.Snapshot().Requirement("keyboard", "focusVisible").Status; got != domain.StatusPass {
		t.Errorf("store state aliased caller data: %v", got)
	}
}
