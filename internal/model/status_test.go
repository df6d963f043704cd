package model_test

import (
	"testing"

	"jobpilot/internal/model"
)

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"NEW", "SCORED", "ELIGIBLE", "APPLIED", "SKIPPED", "FAILED"}
	for _, s := range valid {
		got, err := model.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_LowercaseAccepted(t *testing.T) {
	got, err := model.ParseStatus("applied")
	if err != nil {
		t.Fatalf("ParseStatus(\"applied\") returned unexpected error: %v", err)
	}
	if got != model.StatusApplied {
		t.Errorf("ParseStatus(\"applied\") = %q, want %q", got, model.StatusApplied)
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	if _, err := model.ParseStatus("PENDING"); err == nil {
		t.Error("ParseStatus(\"PENDING\") expected error, got nil")
	}
	if _, err := model.ParseStatus(""); err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct {
		from model.Status
		to   model.Status
	}{
		{model.StatusNew, model.StatusScored},
		{model.StatusNew, model.StatusSkipped},
		{model.StatusNew, model.StatusFailed},
		{model.StatusScored, model.StatusEligible},
		{model.StatusScored, model.StatusSkipped},
		{model.StatusScored, model.StatusFailed},
		{model.StatusEligible, model.StatusApplied},
		{model.StatusEligible, model.StatusSkipped},
		{model.StatusEligible, model.StatusFailed},
		{model.StatusFailed, model.StatusEligible},
		{model.StatusFailed, model.StatusScored},
	}
	for _, c := range cases {
		if !model.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s, %s) = false, want true", c.from, c.to)
		}
	}
}

func TestIsTransitionAllowed_Rejected(t *testing.T) {
	cases := []struct {
		from model.Status
		to   model.Status
	}{
		{model.StatusNew, model.StatusEligible}, // must pass through SCORED
		{model.StatusNew, model.StatusApplied},
		{model.StatusScored, model.StatusApplied},
		{model.StatusApplied, model.StatusEligible}, // terminal
		{model.StatusApplied, model.StatusFailed},
		{model.StatusSkipped, model.StatusEligible}, // terminal
		{model.StatusSkipped, model.StatusNew},
		{model.StatusFailed, model.StatusApplied}, // only back to ELIGIBLE or SCORED
		{model.StatusScored, model.StatusNew},     // no backward moves
	}
	for _, c := range cases {
		if model.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s, %s) = true, want false", c.from, c.to)
		}
	}
}

func TestIsTransitionAllowed_SameStatusIsBookkeeping(t *testing.T) {
	all := []model.Status{
		model.StatusNew, model.StatusScored, model.StatusEligible,
		model.StatusApplied, model.StatusSkipped, model.StatusFailed,
	}
	for _, s := range all {
		if !model.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s, %s) = false, want true", s, s)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []model.Status{model.StatusApplied, model.StatusSkipped} {
		if !model.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should return true", s)
		}
	}
	for _, s := range []model.Status{
		model.StatusNew, model.StatusScored, model.StatusEligible, model.StatusFailed,
	} {
		if model.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should return false", s)
		}
	}
}
