package filter

import "testing"

func mustCompile(t *testing.T, q string) *Expr {
	t.Helper()
	e, err := ParseAndCompile(q)
	if err != nil {
		t.Fatalf("ParseAndCompile(%q): %v", q, err)
	}
	return e
}

func TestCallsignRegexFilter(t *testing.T) {
	e := mustCompile(t, `callsign =~ "^AAL"`)
	if !e.Eval(PilotFields{Callsign: "AAL1"}) {
		t.Error("expected AAL1 to match")
	}
	if e.Eval(PilotFields{Callsign: "DAL2"}) {
		t.Error("expected DAL2 not to match")
	}
}

func TestShortCircuitAnd(t *testing.T) {
	e := mustCompile(t, `alt > 10000 && gs > 200`)
	if e.Eval(PilotFields{Alt: 5000, GS: 9999}) {
		t.Error("expected false: left operand false")
	}
	if !e.Eval(PilotFields{Alt: 20000, GS: 250}) {
		t.Error("expected true: both operands true")
	}
}

func TestShortCircuitOr(t *testing.T) {
	e := mustCompile(t, `callsign == "AAL1" || callsign == "DAL2"`)
	if !e.Eval(PilotFields{Callsign: "DAL2"}) {
		t.Error("expected true via right operand")
	}
	if e.Eval(PilotFields{Callsign: "UAL3"}) {
		t.Error("expected false: neither operand matches")
	}
}

func TestParenthesizedGrouping(t *testing.T) {
	e := mustCompile(t, `(alt > 10000 || gs > 200) && callsign == "AAL1"`)
	if !e.Eval(PilotFields{Alt: 20000, Callsign: "AAL1"}) {
		t.Error("expected true")
	}
	if e.Eval(PilotFields{Alt: 20000, Callsign: "DAL2"}) {
		t.Error("expected false: callsign mismatch")
	}
}

func TestFloatWideningComparison(t *testing.T) {
	e := mustCompile(t, `lat > 40`)
	if !e.Eval(PilotFields{Lat: 40.5}) {
		t.Error("expected integer literal widened to float for comparison")
	}
}

func TestCrossTypeAlwaysFalse(t *testing.T) {
	e := mustCompile(t, `alt == "high"`)
	if e.Eval(PilotFields{Alt: 1}) {
		t.Error("expected cross-type comparison to be false")
	}
}

func TestStringOrderingOperatorsAlwaysFalse(t *testing.T) {
	e := mustCompile(t, `callsign > "AAA"`)
	if e.Eval(PilotFields{Callsign: "ZZZ"}) {
		t.Error("expected ordering operators on strings to always be false")
	}
}

func TestFlightPlanFieldAbsentIsFalse(t *testing.T) {
	e := mustCompile(t, `aircraft == "A320"`)
	if e.Eval(PilotFields{HasFlightPlan: false, Aircraft: "A320"}) {
		t.Error("expected false when pilot has no flight plan even if field would match")
	}
	if !e.Eval(PilotFields{HasFlightPlan: true, Aircraft: "A320"}) {
		t.Error("expected true when flight plan present and field matches")
	}
}

func TestInvalidRegexNeverMatches(t *testing.T) {
	e := mustCompile(t, `callsign =~ "("`)
	if e.Eval(PilotFields{Callsign: "AAL1"}) {
		t.Error("expected failed regex compile to make =~ always false")
	}
	e2 := mustCompile(t, `callsign !~ "("`)
	if !e2.Eval(PilotFields{Callsign: "AAL1"}) {
		t.Error("expected failed regex compile to make !~ always true")
	}
}

func TestUnknownIdentifierIsCompileError(t *testing.T) {
	node, err := Parse(`bogus == "x"`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, err = Compile(node)
	var ce *CompileError
	if err == nil {
		t.Fatal("expected compile error for unknown identifier")
	}
	if !isCompileError(err, &ce) {
		t.Fatalf("expected *CompileError, got %T", err)
	}
}

func isCompileError(err error, target **CompileError) bool {
	if ce, ok := err.(*CompileError); ok {
		*target = ce
		return true
	}
	return false
}

func TestParseErrorOnTrailingOperator(t *testing.T) {
	_, err := Parse(`alt >`)
	if err == nil {
		t.Fatal("expected parse error for incomplete condition")
	}
}

func TestEvaluatePurity(t *testing.T) {
	e := mustCompile(t, `callsign == "AAL1"`)
	f := PilotFields{Callsign: "AAL1"}
	if e.Eval(f) != e.Eval(f) {
		t.Fatal("expected repeated evaluation to be pure")
	}
}
