package finding

import "testing"

func TestSort_SeverityThenPosition(t *testing.T) {
	fs := []Finding{
		{RuleID: "b", Severity: SeverityWarning, Line: 1},
		{RuleID: "z", Severity: SeverityConcern, Line: 9, Column: 4},
		{RuleID: "a", Severity: SeverityConcern, Line: 9, Column: 4},
		{RuleID: "c", Severity: SeverityConcern, Line: 2},
		{RuleID: "d", Severity: SeverityInfo, Line: 1},
	}
	Sort(fs)
	want := []string{"c", "a", "z", "b", "d"}
	for i, id := range want {
		if fs[i].RuleID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, fs[i].RuleID)
		}
	}
}

func TestSeverityText(t *testing.T) {
	for _, sev := range []Severity{SeverityInfo, SeverityWarning, SeverityConcern} {
		text, err := sev.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText: %v", err)
		}
		var back Severity
		if err := back.UnmarshalText(text); err != nil || back != sev {
			t.Fatalf("expected %v back, got %v (%v)", sev, back, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatal("expected error for unknown severity")
	}
	if Severity(0).String() != "unset" {
		t.Fatalf("expected zero severity to be unset")
	}
}
