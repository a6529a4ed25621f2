package lifecycle

import (
	"testing"

	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
)

type testState string

const (
	statePending   testState = "pending"
	stateConfirmed testState = "confirmed"
	stateDelivered testState = "delivered"
)

var testTable = Table[testState]{
	statePending:   {stateConfirmed},
	stateConfirmed: {stateDelivered},
}

func TestStepAllowsDeclaredTransition(t *testing.T) {
	if err := testTable.Step(statePending, stateConfirmed); err != nil {
		t.Fatalf("expected transition to be allowed, got %v", err)
	}
}

func TestStepRejectsSkippedState(t *testing.T) {
	err := testTable.Step(statePending, stateDelivered)
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestStepRejectsSelfTransition(t *testing.T) {
	if err := testTable.Step(statePending, statePending); err == nil {
		t.Fatal("expected error for self transition")
	}
}

func TestTerminal(t *testing.T) {
	if testTable.Terminal(statePending) {
		t.Fatal("pending should not be terminal")
	}
	if !testTable.Terminal(stateDelivered) {
		t.Fatal("delivered should be terminal")
	}
}
