package config

import (
	"strings"
	"testing"
)

const minimalConfig = `{
  "header_aliases": {
    "DESCRIPTION": ["description"],
    "QTY": ["qty"],
    "AMOUNT": ["amount"]
  },
  "totals_keywords": ["total"],
  "items_region": {
    "start_anchors": ["description", "qty"]
  }
}`

func TestParse_Minimal(t *testing.T) {
	cfg, cp, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	// Tuned defaults survive a sparse config
	if cfg.Ranking.MaxCandidates != 6 {
		t.Errorf("MaxCandidates = %d, want 6", cfg.Ranking.MaxCandidates)
	}
	if cfg.RowFix.ContinuationGapFactor != 1.2 {
		t.Errorf("ContinuationGapFactor = %f, want 1.2", cfg.RowFix.ContinuationGapFactor)
	}
	if !cfg.RowFix.Enabled {
		t.Error("RowFix should be enabled by default")
	}

	if len(cp.StartAnchors) != 2 {
		t.Errorf("compiled %d start anchors, want 2", len(cp.StartAnchors))
	}
	if !cp.IsNumericFamily("QTY") || cp.IsNumericFamily("DESCRIPTION") {
		t.Error("numeric family defaults not applied")
	}
	if fam, ok := cp.Matcher.Resolve("Qty"); !ok || fam != "QTY" {
		t.Errorf("Matcher.Resolve(Qty) = %q, %v", fam, ok)
	}
}

func TestParse_AnchorsCaseInsensitiveByDefault(t *testing.T) {
	_, cp, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if !cp.StartAnchors[0].MatchString("DESCRIPTION OF GOODS") {
		t.Error("start anchor should match case-insensitively")
	}
}

func TestParse_MissingRequiredFields(t *testing.T) {
	_, _, err := Parse([]byte(`{"header_aliases": {"QTY": ["qty"]}}`))
	if err == nil {
		t.Fatal("Parse() should fail without required fields")
	}
	msg := err.Error()
	if !strings.Contains(msg, "totals_keywords") {
		t.Errorf("error should name totals_keywords: %v", err)
	}
	if !strings.Contains(msg, "items_region") {
		t.Errorf("error should name items_region: %v", err)
	}
}

func TestParse_EmptyStartAnchors(t *testing.T) {
	raw := `{
  "header_aliases": {"QTY": ["qty"]},
  "totals_keywords": ["total"],
  "items_region": {"start_anchors": []}
}`
	_, _, err := Parse([]byte(raw))
	if err == nil || !strings.Contains(err.Error(), "start_anchors") {
		t.Errorf("Parse() = %v, want start_anchors violation", err)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, _, err := Parse([]byte("{not json")); err == nil {
		t.Error("Parse() should reject malformed JSON")
	}
}

func TestCompile_BadRegexAggregated(t *testing.T) {
	cfg := Default()
	cfg.HeaderAliases = map[string][]string{"QTY": {"qty"}}
	cfg.ItemsRegion.StartAnchors = []string{"[unclosed", "ok"}
	cfg.RowFix.PartNumberPatterns = []string{"(also bad"}

	_, err := cfg.Compile()
	if err == nil {
		t.Fatal("Compile() should fail on bad patterns")
	}
	msg := err.Error()
	if !strings.Contains(msg, "start_anchors[0]") {
		t.Errorf("error should name the bad start anchor: %v", err)
	}
	if !strings.Contains(msg, "part_number_patterns[0]") {
		t.Errorf("error should name the bad part-number pattern: %v", err)
	}
}

func TestContainsKeyword(t *testing.T) {
	keywords := []string{"subtotal", "zwischensumme"}
	if !ContainsKeyword("Subtotal: 2,000.00", keywords) {
		t.Error("keyword match should be case-insensitive")
	}
	if ContainsKeyword("Grand finale", keywords) {
		t.Error("unrelated text should not match")
	}
	if ContainsKeyword("anything", nil) {
		t.Error("empty keyword list should never match")
	}
}
