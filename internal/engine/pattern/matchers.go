package pattern

import "github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"

// MethodCall matches `.name(..)` for any of the given method names.
func MethodCall(names ...string) func(parser.Expr) bool {
	set := toSet(names)
	return func(e parser.Expr) bool {
		return e.Kind == parser.ExprMethodCall && set[e.Name]
	}
}

// Macro matches `name!(..)` regardless of the path prefix.
func Macro(names ...string) func(parser.Expr) bool {
	set := toSet(names)
	return func(e parser.Expr) bool {
		return e.Kind == parser.ExprMacro && set[e.Name]
	}
}

// CallSuffix matches free function calls whose path ends with one of suffixes,
// compared segment-wise (`thread::sleep` matches `std::thread::sleep`).
func CallSuffix(suffixes ...string) func(parser.Expr) bool {
	return func(e parser.Expr) bool {
		if e.Kind != parser.ExprCall {
			return false
		}
		for _, s := range suffixes {
			if e.Name == s || hasSegmentSuffix(e.Name, s) {
				return true
			}
		}
		return false
	}
}

func Either(preds ...func(parser.Expr) bool) func(parser.Expr) bool {
	return func(e parser.Expr) bool {
		for _, p := range preds {
			if p(e) {
				return true
			}
		}
		return false
	}
}

func hasSegmentSuffix(path, suffix string) bool {
	if len(path) <= len(suffix)+2 {
		return false
	}
	return path[len(path)-len(suffix):] == suffix && path[len(path)-len(suffix)-2:len(path)-len(suffix)] == "::"
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
