package agent

import "testing"

func TestValidateRequiresIDAndName(t *testing.T) {
	if err := Validate(Agent{}); err == nil {
		t.Fatalf("expected error for empty agent")
	}
	if err := Validate(Agent{ID: "a1"}); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if err := Validate(Agent{ID: "a1", Name: "n"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownStatus(t *testing.T) {
	if err := Validate(Agent{ID: "a1", Name: "n", Status: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestCanTransitionIsFreeForm(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{StatusRegistered, StatusRunning},
		{StatusRunning, StatusStopped},
		{StatusStopped, StatusRunning},
		{StatusError, StatusRunning},
		{StatusStopped, StatusError},
		{StatusRunning, StatusRunning},
	}
	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true (transitions are free-form)", tc.from, tc.to)
		}
	}
}
