// Package config holds the declarative per-vendor configuration that drives
// table reconstruction. Loading validates the raw JSON against an embedded
// schema before any page is processed, then compiles every regex and alias
// table once so the per-page passes never touch pattern text again.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tablekit/itemfix/family"
)

// Margins are normalized page-fraction insets applied to the items region
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// ItemsRegion configures anchor-based detection of the line-item band
type ItemsRegion struct {
	DetectBy      string   `json:"detect_by"` // currently "anchors"
	StartAnchors  []string `json:"start_anchors"`
	EndAnchors    []string `json:"end_anchors"`
	CaseSensitive bool     `json:"case_sensitive"`
	Margins       Margins  `json:"margins"`
	MinHeight     float64  `json:"min_height"`
	XPolicy       string   `json:"x_policy"` // "full_width" or "margins"
}

// Weights are the linear feature weights used by the candidate ranker
type Weights struct {
	HeaderHits    float64 `json:"header_hits"`
	RegionOverlap float64 `json:"region_overlap"`
	NumericRows   float64 `json:"numeric_rows"`
	BodyRows      float64 `json:"body_rows"`
	TotalsBelow   float64 `json:"totals_below"`
}

// Ranking configures candidate scoring and selection
type Ranking struct {
	Weights          Weights `json:"weights"`
	OverlapThreshold float64 `json:"overlap_threshold"`
	MaxCandidates    int     `json:"max_candidates"`
	UseRegion        bool    `json:"use_region"`
	DefaultRowLimit  int     `json:"default_row_limit"`
}

// Tolerance is an absolute plus relative comparison tolerance
type Tolerance struct {
	Abs float64 `json:"abs"`
	Rel float64 `json:"rel"`
}

// ColumnOverride rewrites a resolved column by index or by header pattern
type ColumnOverride struct {
	MatchIndex  *int   `json:"match_index,omitempty"`
	MatchHeader string `json:"match_header,omitempty"`
	Family      string `json:"family,omitempty"`
	Header      string `json:"header,omitempty"`
}

// RowFix configures the deterministic row/column repair pass
type RowFix struct {
	Enabled                 bool             `json:"enabled"`
	ShadowMode              bool             `json:"shadow_mode"`
	ContinuationGapPts      float64          `json:"continuation_gap_pts"`
	HeaderMarginPts         float64          `json:"header_margin_pts"`
	NumericBandTolerancePts float64          `json:"numeric_band_tolerance_pts"`
	NumericColumnMinXFrac   float64          `json:"numeric_column_min_x_frac"`
	ContinuationGapFactor   float64          `json:"continuation_gap_factor"`
	PartNumberPatterns      []string         `json:"part_number_patterns"`
	ArithmeticTolerance     Tolerance        `json:"arithmetic_tolerance"`
	SubtotalTolerance       Tolerance        `json:"subtotal_tolerance"`
	ColumnOverrides         []ColumnOverride `json:"column_overrides"`
	CacheEnabled            bool             `json:"cache_enabled"`
	Debug                   bool             `json:"debug"`
}

// Config is the full declarative vendor configuration
type Config struct {
	HeaderAliases    map[string][]string `json:"header_aliases"`
	NumericFamilies  []string            `json:"numeric_families"`
	TotalsKeywords   []string            `json:"totals_keywords"`
	NoteKeywords     []string            `json:"note_keywords"`
	SubtotalKeywords []string            `json:"subtotal_keywords"`
	ItemsRegion      ItemsRegion         `json:"items_region"`
	Ranking          Ranking             `json:"ranking"`
	RowFix           RowFix              `json:"row_fix"`
}

// Default returns a configuration with the engine's tuned default values.
// Header aliases and totals keywords have no defaults: they are vendor
// vocabulary and required in every config file.
func Default() *Config {
	return &Config{
		NumericFamilies:  []string{"NO", "QTY", "UNIT_PRICE", "DISCOUNT", "AMOUNT"},
		NoteKeywords:     []string{"terms", "note", "remark", "bemerkung"},
		SubtotalKeywords: []string{"subtotal", "sub total", "zwischensumme"},
		ItemsRegion: ItemsRegion{
			DetectBy:  "anchors",
			MinHeight: 0.05,
			XPolicy:   "full_width",
		},
		Ranking: Ranking{
			Weights: Weights{
				HeaderHits:    2.0,
				RegionOverlap: 3.0,
				NumericRows:   2.0,
				BodyRows:      0.2,
				TotalsBelow:   1.0,
			},
			OverlapThreshold: 0.3,
			MaxCandidates:    6,
			UseRegion:        true,
			DefaultRowLimit:  40,
		},
		RowFix: RowFix{
			Enabled:                 true,
			ContinuationGapPts:      14.0,
			HeaderMarginPts:         2.0,
			NumericBandTolerancePts: 6.0,
			NumericColumnMinXFrac:   0.45,
			ContinuationGapFactor:   1.2,
			ArithmeticTolerance:     Tolerance{Abs: 0.05, Rel: 0.002},
			SubtotalTolerance:       Tolerance{Abs: 0.05, Rel: 0.001},
			CacheEnabled:            true,
		},
	}
}

// Compiled carries the precompiled patterns and alias matcher derived from a
// validated Config. It is built once at load time and shared read-only.
type Compiled struct {
	Matcher      *family.Matcher
	StartAnchors []*regexp.Regexp
	EndAnchors   []*regexp.Regexp
	PartNumbers  []*regexp.Regexp
	HeaderMatch  []*regexp.Regexp // column-override header patterns, indexed like ColumnOverrides

	numericFamilies map[string]bool
}

// IsNumericFamily reports whether a family carries numeric cell content
func (c *Compiled) IsNumericFamily(fam string) bool {
	return c.numericFamilies[fam]
}

// Compile builds the Compiled view of the config. All pattern errors are
// aggregated into one error so a broken config surfaces every problem at
// once.
func (c *Config) Compile() (*Compiled, error) {
	cp := &Compiled{
		Matcher:         family.NewMatcher(c.HeaderAliases),
		numericFamilies: make(map[string]bool, len(c.NumericFamilies)),
	}
	for _, f := range c.NumericFamilies {
		cp.numericFamilies[f] = true
	}

	var errs []error
	compile := func(pattern, field string, caseSensitive bool) *regexp.Regexp {
		if !caseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
		return re
	}

	for i, p := range c.ItemsRegion.StartAnchors {
		cp.StartAnchors = append(cp.StartAnchors,
			compile(p, fmt.Sprintf("items_region.start_anchors[%d]", i), c.ItemsRegion.CaseSensitive))
	}
	for i, p := range c.ItemsRegion.EndAnchors {
		cp.EndAnchors = append(cp.EndAnchors,
			compile(p, fmt.Sprintf("items_region.end_anchors[%d]", i), c.ItemsRegion.CaseSensitive))
	}
	for i, p := range c.RowFix.PartNumberPatterns {
		cp.PartNumbers = append(cp.PartNumbers,
			compile(p, fmt.Sprintf("row_fix.part_number_patterns[%d]", i), true))
	}
	cp.HeaderMatch = make([]*regexp.Regexp, len(c.RowFix.ColumnOverrides))
	for i, ov := range c.RowFix.ColumnOverrides {
		if ov.MatchHeader != "" {
			cp.HeaderMatch[i] = compile(ov.MatchHeader,
				fmt.Sprintf("row_fix.column_overrides[%d].match_header", i), false)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cp, nil
}

// ContainsKeyword reports whether text contains any of the given keywords,
// compared case-insensitively.
func ContainsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Load reads, validates, and compiles a vendor config file. Validation
// failure is fatal and names every missing or invalid field.
func Load(path string) (*Config, *Compiled, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse validates and compiles raw JSON config bytes
func Parse(raw []byte) (*Config, *Compiled, error) {
	if err := validateSchema(raw); err != nil {
		return nil, nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}
	cp, err := cfg.Compile()
	if err != nil {
		return nil, nil, err
	}
	return cfg, cp, nil
}
