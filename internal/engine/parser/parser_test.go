package parser

import (
	"errors"
	"testing"
)

func mustParse(t *testing.T, src string) *SourceUnit {
	t.Helper()
	unit, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return unit
}

func exprNames(d *Declaration, kind ExprKind) []string {
	var out []string
	for _, e := range d.Exprs {
		if e.Kind == kind {
			out = append(out, e.Name)
		}
	}
	return out
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func TestParse_EmptySource(t *testing.T) {
	for _, src := range []string{"", "   \n\t\n"} {
		unit, err := Parse([]byte(src))
		if unit != nil {
			t.Fatalf("expected no unit for %q", src)
		}
		if !errors.Is(err, ErrEmptySource) {
			t.Fatalf("expected ErrEmptySource for %q, got %v", src, err)
		}
		var perr *ParseError
		if !errors.As(err, &perr) || perr.Kind != ParseErrorEmpty {
			t.Fatalf("expected *ParseError with empty kind, got %#v", err)
		}
	}
}

func TestParse_UnbalancedBraceReportsLine(t *testing.T) {
	unit, err := Parse([]byte("fn main() {\n}\n}\n"))
	if unit != nil {
		t.Fatal("expected no partial unit on syntax error")
	}
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Line != 3 {
		t.Fatalf("expected offending line 3, got %d (%v)", perr.Line, perr)
	}
}

func TestParse_UnterminatedItemPointsAtEnd(t *testing.T) {
	cases := []struct {
		src     string
		minLine int
	}{
		{src: "fn main() {\n", minLine: 1},
		{src: "fn main() {\n    let x = 1;\n", minLine: 2},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.src))
		var perr *ParseError
		if !errors.As(err, &perr) || perr.Kind != ParseErrorSyntax {
			t.Fatalf("%q: expected syntax ParseError, got %v", tc.src, err)
		}
		if perr.Line < tc.minLine {
			t.Fatalf("%q: expected line >= %d, got %d", tc.src, tc.minLine, perr.Line)
		}
		if perr.Line == 1 && perr.Column <= len("fn main() ") {
			t.Fatalf("%q: expected position at or after the open brace, got %d:%d", tc.src, perr.Line, perr.Column)
		}
	}
}

func TestParse_CommentsOnly(t *testing.T) {
	unit := mustParse(t, "// nothing here\n/* still nothing */\n")
	if len(unit.Declarations) != 0 {
		t.Fatalf("expected no declarations, got %d", len(unit.Declarations))
	}
	if unit.InnerDocs {
		t.Fatal("plain comments must not count as crate docs")
	}
}

func TestParse_Declarations(t *testing.T) {
	src := `//! Crate docs.

use std::fmt;

/// A point.
#[derive(Debug, Clone, Default)]
pub struct Point {
    pub x: i32,
    y: i32,
}

pub enum Shape { Circle, Square }

impl Point {
    pub fn new(x: i32, y: i32) -> Self {
        Point { x, y }
    }

    fn y(&self) -> i32 { self.y }
}

impl fmt::Display for Point {
    fn fmt(&self, f: &mut fmt::Formatter<'_>) -> fmt::Result {
        write!(f, "{}", self.x)
    }
}

pub trait Area {
    fn area(&self) -> f64;
}

const LIMIT: usize = 3;
static mut COUNTER: u32 = 0;
`
	unit := mustParse(t, src)
	if !unit.InnerDocs {
		t.Fatal("expected inner docs to be detected")
	}

	kinds := make([]DeclKind, 0, len(unit.Declarations))
	for _, d := range unit.Declarations {
		kinds = append(kinds, d.Kind)
	}
	want := []DeclKind{KindUse, KindStruct, KindEnum, KindImpl, KindImpl, KindTrait, KindConst, KindStatic}
	if len(kinds) != len(want) {
		t.Fatalf("expected kinds %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected kinds %v, got %v", want, kinds)
		}
	}

	point := unit.Declarations[1]
	if point.Name != "Point" || !point.IsPublic() || !point.Documented {
		t.Fatalf("unexpected struct declaration: %+v", point)
	}
	if point.Span.Start.Line != 6 {
		t.Fatalf("expected span to start at the derive attribute on line 6, got %d", point.Span.Start.Line)
	}
	derives := point.Derives()
	if !contains(derives, "Default") || !contains(derives, "Debug") {
		t.Fatalf("expected derives to include Debug and Default, got %v", derives)
	}
	if len(point.Fields) != 2 || !point.Fields[0].Public || point.Fields[1].Public {
		t.Fatalf("unexpected fields: %+v", point.Fields)
	}

	shape := unit.Declarations[2]
	if len(shape.Variants) != 2 || shape.Variants[0] != "Circle" {
		t.Fatalf("unexpected variants: %v", shape.Variants)
	}

	inherent := unit.Declarations[3]
	if inherent.ImplType != "Point" || inherent.ImplTrait != "" || len(inherent.Children) != 2 {
		t.Fatalf("unexpected inherent impl: %+v", inherent)
	}
	ctor := inherent.Children[0]
	if ctor.Name != "new" || ctor.HasSelf || ctor.ParamCount != 2 || ctor.ReturnType != "Self" {
		t.Fatalf("unexpected constructor shape: %+v", ctor)
	}
	if getter := inherent.Children[1]; !getter.HasSelf || getter.ParamCount != 0 {
		t.Fatalf("unexpected method shape: %+v", getter)
	}

	display := unit.Declarations[4]
	if display.ImplTrait != "fmt::Display" || display.ImplType != "Point" {
		t.Fatalf("unexpected trait impl: trait=%q type=%q", display.ImplTrait, display.ImplType)
	}
	if names := exprNames(display.Children[0], ExprMacro); !contains(names, "write") {
		t.Fatalf("expected write! macro in fmt body, got %v", names)
	}

	area := unit.Declarations[5].Children[0]
	if area.HasBody {
		t.Fatal("trait method signature must not report a body")
	}

	if static := unit.Declarations[7]; !static.HasModifier("mut") {
		t.Fatalf("expected static mut modifier, got %v", static.Modifiers)
	}
}

func TestParse_RecoversCallsInsideMacros(t *testing.T) {
	unit := mustParse(t, `fn main() {
    let v: Option<i32> = None;
    println!("{}", v.unwrap());
    assert_eq!(compute().expect("ok"), 1);
}
`)
	main := unit.Declarations[0]
	methods := exprNames(main, ExprMethodCall)
	if !contains(methods, "unwrap") || !contains(methods, "expect") {
		t.Fatalf("expected unwrap and expect recovered from macro tokens, got %v", methods)
	}
	for _, e := range main.Exprs {
		if e.Name == "unwrap" && e.Location.Line != 3 {
			t.Fatalf("expected unwrap on line 3, got %d", e.Location.Line)
		}
	}
}

func TestParse_MethodAndPathCalls(t *testing.T) {
	unit := mustParse(t, `fn run() {
    let n = "3".parse::<u8>().unwrap();
    std::thread::sleep(std::time::Duration::from_millis(n as u64));
    panic!("boom");
}
`)
	run := unit.Declarations[0]
	methods := exprNames(run, ExprMethodCall)
	if !contains(methods, "parse") || !contains(methods, "unwrap") {
		t.Fatalf("expected parse and unwrap method calls, got %v", methods)
	}
	calls := exprNames(run, ExprCall)
	if !contains(calls, "std::thread::sleep") {
		t.Fatalf("expected std::thread::sleep call, got %v", calls)
	}
	if macros := exprNames(run, ExprMacro); !contains(macros, "panic") {
		t.Fatalf("expected panic macro, got %v", macros)
	}
}

func TestParse_AsyncConstructs(t *testing.T) {
	unit := mustParse(t, `#[tokio::main]
async fn main() {
    fetch().await;
}

fn spawn_it() {
    let fut = async {
        std::thread::sleep(std::time::Duration::from_secs(1));
    };
    drop(fut);
}
`)
	main := unit.Declarations[0]
	if !main.IsAsync() || !main.HasAttribute("tokio::main") {
		t.Fatalf("expected async main with tokio::main, got %+v", main)
	}
	if awaits := exprNames(main, ExprAwait); len(awaits) != 1 {
		t.Fatalf("expected one await, got %v", awaits)
	}

	spawn := unit.Declarations[1]
	if spawn.IsAsync() {
		t.Fatal("spawn_it is not an async fn")
	}
	var sawBlock, sleepInAsync bool
	for _, e := range spawn.Exprs {
		if e.Kind == ExprAsyncBlock {
			sawBlock = true
		}
		if e.Name == "std::thread::sleep" && e.InAsync {
			sleepInAsync = true
		}
	}
	if !sawBlock || !sleepInAsync {
		t.Fatalf("expected async block with sleep inside it, got %+v", spawn.Exprs)
	}
}

func TestParse_TestModuleAndNesting(t *testing.T) {
	unit := mustParse(t, `pub fn add(a: i32, b: i32) -> i32 { a + b }

#[cfg(test)]
mod tests {
    use super::*;

    #[test]
    fn adds() {
        fn helper() -> i32 { 1 }
        assert_eq!(add(helper(), 1), 2);
    }
}
`)
	mod := unit.Declarations[1]
	if mod.Kind != KindModule || !mod.IsTest() {
		t.Fatalf("expected cfg(test) module, got %+v", mod)
	}
	if len(mod.Children) != 2 || mod.Children[0].Kind != KindUse || !mod.Children[0].Glob {
		t.Fatalf("expected glob use and test fn in module, got %+v", mod.Children)
	}
	adds := mod.Children[1]
	if !adds.IsTest() {
		t.Fatal("expected #[test] to mark the function as test code")
	}
	if len(adds.Children) != 1 || adds.Children[0].Name != "helper" {
		t.Fatalf("expected nested helper fn as child, got %+v", adds.Children)
	}

	var check func(parent *Declaration)
	check = func(parent *Declaration) {
		for _, child := range parent.Children {
			if !parent.Span.Contains(child.Span) {
				t.Fatalf("child %s span %+v escapes parent %s span %+v", child.Name, child.Span, parent.Name, parent.Span)
			}
			check(child)
		}
	}
	for _, d := range unit.Declarations {
		check(d)
	}
}

func TestSourceUnit_LineOf(t *testing.T) {
	unit := mustParse(t, "fn a() {}\nfn b() {}\n\nfn c() {}\n")
	cases := map[int]int{0: 1, 5: 1, 10: 2, 20: 3, 21: 4}
	for offset, line := range cases {
		if got := unit.LineOf(offset); got != line {
			t.Fatalf("LineOf(%d) = %d, want %d", offset, got, line)
		}
	}
	if unit.LineCount() != 4 {
		t.Fatalf("expected 4 lines, got %d", unit.LineCount())
	}
	for _, d := range unit.Declarations {
		if unit.LineOf(d.Span.StartByte) != d.Span.Start.Line {
			t.Fatalf("LineOf disagrees with span start for %s", d.Name)
		}
	}
}

func TestIsTestAttribute(t *testing.T) {
	cases := []struct {
		attr Expr
		want bool
	}{
		{Expr{Kind: ExprAttribute, Name: "test", Text: "test"}, true},
		{Expr{Kind: ExprAttribute, Name: "tokio::test", Text: "tokio::test"}, true},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: "cfg(test)"}, true},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: "cfg(not(test))"}, false},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: `cfg(feature="contest-mode")`}, false},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: `cfg(feature="latest")`}, false},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: `cfg(feature = "attestation")`}, false},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: `cfg(feature="test")`}, false},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: `cfg(all(test,feature="fuzz"))`}, true},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: `cfg(any(test, feature = "mocks"))`}, true},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: `cfg(all(unix,not(test)))`}, false},
		{Expr{Kind: ExprAttribute, Name: "cfg", Text: "cfg(testing)"}, false},
		{Expr{Kind: ExprAttribute, Name: "derive", Text: "derive(Debug)"}, false},
		{Expr{Kind: ExprMacro, Name: "test"}, false},
	}
	for _, tc := range cases {
		if got := IsTestAttribute(tc.attr); got != tc.want {
			t.Fatalf("IsTestAttribute(%+v) = %v, want %v", tc.attr, got, tc.want)
		}
	}
}
