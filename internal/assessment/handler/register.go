// Package handler routes assessment messages to the assessment store.
package handler

import (
	"context"

	"accessibility-insights/background/internal/assessment"
	"accessibility-insights/background/internal/browser"
	"accessibility-insights/background/internal/messaging"
	"accessibility-insights/background/internal/telemetry"
)

// AddFailureInstanceResult is returned for AssessmentAddFailureInstance.
type AddFailureInstanceResult struct {
	ID string `json:"id"`
}

// Register registers the assessment message callbacks on interp.
func Register(interp *messaging.Interpreter, store *assessment.Store) {
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentChangeRequirementStatus, func(ctx context.Context, msg browser.Message) (any, error) {
		var p assessment.ChangeStatusPayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.ChangeRequirementStatus(ctx, msg.TabID, p)
	})
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentUndoRequirementStatus, func(ctx context.Context, msg browser.Message) (any, error) {
		var p assessment.RequirementPayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.UndoRequirementStatusChange(ctx, msg.TabID, p)
	})
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentAddFailureInstance, func(ctx context.Context, msg browser.Message) (any, error) {
		var p assessment.InstancePayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		id, err := store.AddFailureInstance(ctx, msg.TabID, p)
		if err != nil {
			return nil, err
		}
		return AddFailureInstanceResult{ID: id}, nil
	})
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentEditFailureInstance, func(ctx context.Context, msg browser.Message) (any, error) {
		var p assessment.InstancePayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.EditFailureInstance(ctx, msg.TabID, p)
	})
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentRemoveFailureInstance, func(ctx context.Context, msg browser.Message) (any, error) {
		var p assessment.InstancePayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.RemoveFailureInstance(ctx, msg.TabID, p)
	})
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentResetTestType, func(ctx context.Context, msg browser.Message) (any, error) {
		var p assessment.TestTypePayload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.ResetTestType(ctx, msg.TabID, p)
	})
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentResetAll, func(ctx context.Context, msg browser.Message) (any, error) {
		var p telemetry.Payload
		if err := messaging.DecodePayload(msg, &p); err != nil {
			return nil, err
		}
		return nil, store.ResetAll(ctx, msg.TabID, p)
	})
	interp.RegisterTypeToPayloadCallback(messaging.AssessmentGetState, func(ctx context.Context, msg browser.Message) (any, error) {
		return store.Snapshot(), nil
	})
}
