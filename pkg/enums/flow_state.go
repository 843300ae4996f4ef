package enums

import "fmt"

// FlowState tracks the lifecycle of a checkout confirmation flow.
type FlowState string

const (
	FlowStateIdle            FlowState = "idle"
	FlowStateSubmitting      FlowState = "submitting"
	FlowStateRequiresAction  FlowState = "requires_action"
	FlowStateProcessing      FlowState = "processing"
	FlowStateSucceeded       FlowState = "succeeded"
	FlowStateFailed          FlowState = "failed"
	FlowStateRecordingFailed FlowState = "recording_failed"
)

var validFlowStates = []FlowState{
	FlowStateIdle,
	FlowStateSubmitting,
	FlowStateRequiresAction,
	FlowStateProcessing,
	FlowStateSucceeded,
	FlowStateFailed,
	FlowStateRecordingFailed,
}

// String implements fmt.Stringer.
func (s FlowState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FlowState.
func (s FlowState) IsValid() bool {
	for _, candidate := range validFlowStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// Resubmittable reports whether a confirm attempt is allowed from this state.
// Failed returns the flow to a confirmable position; Idle is the initial one.
func (s FlowState) Resubmittable() bool {
	return s == FlowStateIdle || s == FlowStateFailed
}

// Terminal reports whether the flow can no longer change state.
func (s FlowState) Terminal() bool {
	return s == FlowStateSucceeded || s == FlowStateRecordingFailed
}

// ParseFlowState converts raw input into a FlowState.
func ParseFlowState(value string) (FlowState, error) {
	for _, candidate := range validFlowStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid flow state %q", value)
}
