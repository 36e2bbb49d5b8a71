package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
)

func analyze(t *testing.T, src string) []finding.Finding {
	t.Helper()
	unit, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	return Analyze(unit)
}

func ruleIDs(fs []finding.Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.RuleID)
	}
	return out
}

func TestAnalyze_DetectsEveryCatalogEntry(t *testing.T) {
	fs := analyze(t, `fn work(r: Result<u8, String>, o: Option<u8>) -> u8 {
    let a = o.unwrap();
    let b = r.clone().expect("present");
    let _ = r.clone().unwrap_err();
    if a == 0 { panic!("zero"); }
    if b == 1 { unreachable!(); }
    if a == b { todo!() }
    unimplemented!("later")
}
`)
	assert.Equal(t, []string{
		"unchecked-unwrap",
		"unchecked-expect",
		"unchecked-unwrap-err",
		"forced-panic",
		"forced-unreachable",
		"not-implemented-todo",
		"not-implemented-unimplemented",
	}, ruleIDs(fs))
	for _, f := range fs {
		assert.Equal(t, finding.SeverityConcern, f.Severity, f.RuleID)
		assert.NotEmpty(t, f.Remediation, f.RuleID)
		assert.Contains(t, f.Message, "work", f.RuleID)
	}
}

func TestAnalyze_TestCodeIsDowngraded(t *testing.T) {
	fs := analyze(t, `#[test]
fn parses() {
    "1".parse::<u8>().unwrap();
}

#[tokio::test]
async fn fetches() {
    panic!("nope");
}

#[cfg(test)]
mod tests {
    fn helper() -> u8 { Some(1).expect("one") }
}
`)
	require.Len(t, fs, 3)
	for _, f := range fs {
		assert.Equal(t, finding.SeverityInfo, f.Severity, "%s at line %d", f.RuleID, f.Line)
	}
}

func TestAnalyze_LookalikesAreIgnored(t *testing.T) {
	fs := analyze(t, `fn safe(o: Option<u8>) -> u8 {
    let unwrap = 3;
    let v = o.unwrap_or(unwrap);
    let w = o.unwrap_or_default();
    assert!(v > 0, "panic would be wrong here");
    v + w
}
`)
	assert.Empty(t, fs)
}

func TestAnalyze_RecoversFromMacroArguments(t *testing.T) {
	fs := analyze(t, `fn show(o: Option<u8>) {
    println!("{}", o.unwrap());
}
`)
	require.Len(t, fs, 1)
	assert.Equal(t, "unchecked-unwrap", fs[0].RuleID)
	assert.Equal(t, 2, fs[0].Line)
}

func TestCatalog_IsShared(t *testing.T) {
	a := Catalog()
	b := Catalog()
	require.Len(t, a, 7)
	assert.Same(t, &a[0], &b[0])
	for _, r := range a {
		assert.Contains(t, Categories(), r.Category)
	}
}
