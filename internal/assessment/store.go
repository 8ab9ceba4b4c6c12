package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"accessibility-insights/background/internal/assessment/domain"
	"accessibility-insights/background/internal/logging"
	"accessibility-insights/background/internal/storage"
	"accessibility-insights/background/internal/telemetry"
)

// Telemetry event names published by the store.
const (
	EventChangeRequirementStatus = "changeRequirementStatus"
	EventUndoRequirementStatus   = "undoRequirementStatusChange"
	EventAddFailureInstance      = "addFailureInstance"
	EventEditFailureInstance     = "editFailureInstance"
	EventRemoveFailureInstance   = "removeFailureInstance"
	EventResetTestType           = "resetTestType"
	EventResetAll                = "resetAllAssessments"
)

// ErrInstanceNotFound is returned when a failure instance id is not recorded for the requirement.
var ErrInstanceNotFound = errors.New("assessment: failure instance not found")

// TelemetryPublisher publishes action telemetry. *telemetry.EventHandler satisfies it.
type TelemetryPublisher interface {
	PublishTelemetry(ctx context.Context, eventName string, payload telemetry.Payload, tabID int, includeURLAndTitle bool) error
}

// ChangeStatusPayload sets the status of one requirement.
type ChangeStatusPayload struct {
	telemetry.Payload
	TestType    string                  `json:"testType"`
	Requirement string                  `json:"requirement"`
	Status      domain.ManualTestStatus `json:"status"`
}

// RequirementPayload identifies one requirement.
type RequirementPayload struct {
	telemetry.Payload
	TestType    string `json:"testType"`
	Requirement string `json:"requirement"`
}

// InstancePayload adds (ID empty), edits or removes a failure instance.
type InstancePayload struct {
	telemetry.Payload
	TestType    string `json:"testType"`
	Requirement string `json:"requirement"`
	ID          string `json:"id,omitempty"`
	Description string `json:"description,omitempty"`
	Selector    string `json:"selector,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// TestTypePayload identifies one assessment.
type TestTypePayload struct {
	telemetry.Payload
	TestType string `json:"testType"`
}

// ChangeListener is called with a snapshot after every successful mutation.
type ChangeListener func(data *domain.Data)

// Store records requirement results, persisting every change under storage.KeyAssessmentStore.
type Store struct {
	mu        sync.Mutex
	data      *domain.Data
	provider  *Provider
	persisted storage.Store
	telemetry TelemetryPublisher
	logger    *zap.Logger
	newID     func() string
	listeners []ChangeListener
}

// NewStore returns a store seeded with initial (nil means empty).
func NewStore(provider *Provider, persisted storage.Store, publisher TelemetryPublisher, initial *domain.Data, logger *zap.Logger) *Store {
	data := initial.Clone()
	return &Store{
		data:      data,
		provider:  provider,
		persisted: persisted,
		telemetry: publisher,
		logger:    logging.OrNop(logger),
		newID:     uuid.NewString,
	}
}

// OnChange registers l.
func (s *Store) OnChange(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() *domain.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// ChangeRequirementStatus sets a requirement's status. Moving to PASS clears its failure instances.
func (s *Store) ChangeRequirementStatus(ctx context.Context, tabID int, p ChangeStatusPayload) error {
	return s.mutate(ctx, tabID, EventChangeRequirementStatus, p.Payload, func(d *domain.Data) error {
		rs, err := s.requirement(d, p.TestType, p.Requirement)
		if err != nil {
			return err
		}
		rs.Status = p.Status
		if p.Status == domain.StatusPass {
			rs.Instances = nil
		}
		return nil
	})
}

// UndoRequirementStatusChange returns a requirement to UNKNOWN and drops its failure instances.
func (s *Store) UndoRequirementStatusChange(ctx context.Context, tabID int, p RequirementPayload) error {
	return s.mutate(ctx, tabID, EventUndoRequirementStatus, p.Payload, func(d *domain.Data) error {
		rs, err := s.requirement(d, p.TestType, p.Requirement)
		if err != nil {
			return err
		}
		rs.Status = domain.StatusUnknown
		rs.Instances = nil
		return nil
	})
}

// AddFailureInstance records a new failure and marks the requirement FAIL. It returns the new instance id.
func (s *Store) AddFailureInstance(ctx context.Context, tabID int, p InstancePayload) (string, error) {
	id := s.newID()
	err := s.mutate(ctx, tabID, EventAddFailureInstance, p.Payload, func(d *domain.Data) error {
		rs, err := s.requirement(d, p.TestType, p.Requirement)
		if err != nil {
			return err
		}
		if rs.Instances == nil {
			rs.Instances = make(map[string]*domain.FailureInstance)
		}
		rs.Instances[id] = &domain.FailureInstance{ID: id, Description: p.Description, Selector: p.Selector, HTML: p.HTML}
		rs.Status = domain.StatusFail
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// EditFailureInstance replaces the description, selector and html of an existing instance.
func (s *Store) EditFailureInstance(ctx context.Context, tabID int, p InstancePayload) error {
	return s.mutate(ctx, tabID, EventEditFailureInstance, p.Payload, func(d *domain.Data) error {
		rs, err := s.requirement(d, p.TestType, p.Requirement)
		if err != nil {
			return err
		}
		inst, ok := rs.Instances[p.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrInstanceNotFound, p.ID)
		}
		inst.Description, inst.Selector, inst.HTML = p.Description, p.Selector, p.HTML
		return nil
	})
}

// RemoveFailureInstance deletes an instance. Removing the last instance of a FAIL requirement returns it to UNKNOWN.
func (s *Store) RemoveFailureInstance(ctx context.Context, tabID int, p InstancePayload) error {
	return s.mutate(ctx, tabID, EventRemoveFailureInstance, p.Payload, func(d *domain.Data) error {
		rs, err := s.requirement(d, p.TestType, p.Requirement)
		if err != nil {
			return err
		}
		if _, ok := rs.Instances[p.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrInstanceNotFound, p.ID)
		}
		delete(rs.Instances, p.ID)
		if len(rs.Instances) == 0 {
			rs.Instances = nil
			if rs.Status == domain.StatusFail {
				rs.Status = domain.StatusUnknown
			}
		}
		return nil
	})
}

// ResetTestType clears every result of one assessment.
func (s *Store) ResetTestType(ctx context.Context, tabID int, p TestTypePayload) error {
	return s.mutate(ctx, tabID, EventResetTestType, p.Payload, func(d *domain.Data) error {
		if _, ok := s.provider.ForType(p.TestType); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRequirement, p.TestType)
		}
		delete(d.Tests, p.TestType)
		return nil
	})
}

// ResetAll clears every result.
func (s *Store) ResetAll(ctx context.Context, tabID int, p telemetry.Payload) error {
	return s.mutate(ctx, tabID, EventResetAll, p, func(d *domain.Data) error {
		d.Tests = make(map[string]map[string]*domain.RequirementStatus)
		return nil
	})
}

// requirement validates the keys against the provider and returns the (possibly new) result entry.
func (s *Store) requirement(d *domain.Data, testType, reqKey string) (*domain.RequirementStatus, error) {
	if _, err := s.provider.Requirement(testType, reqKey); err != nil {
		return nil, err
	}
	reqs, ok := d.Tests[testType]
	if !ok {
		reqs = make(map[string]*domain.RequirementStatus)
		d.Tests[testType] = reqs
	}
	rs, ok := reqs[reqKey]
	if !ok {
		rs = &domain.RequirementStatus{}
		reqs[reqKey] = rs
	}
	return rs, nil
}

// mutate applies fn to a working copy, persists it, then swaps it in. Telemetry and listeners run after
// the lock is released; telemetry failures are logged.
func (s *Store) mutate(ctx context.Context, tabID int, event string, payload telemetry.Payload, fn func(d *domain.Data) error) error {
	s.mu.Lock()
	next := s.data.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := storage.SetJSON(ctx, s.persisted, storage.KeyAssessmentStore, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("assessment: persist: %w", err)
	}
	s.data = next
	snapshot := next.Clone()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.Unlock()

	if s.telemetry != nil {
		if err := s.telemetry.PublishTelemetry(ctx, event, payload, tabID, true); err != nil {
			s.logger.Warn("assessment: publish telemetry", zap.String("event", event), zap.Error(err))
		}
	}
	for _, l := range listeners {
		l(snapshot)
	}
	return nil
}
