package xlsxreport

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleSet is the YAML document holding formatting rules.
//
//	rules:
//	  - sheet: OrdersReport
//	    column: order_revenue
//	    sort: asc
//	    color_scale:
//	      min_color: "#FFCCCC"
//	      max_color: "#00FF00"
type RuleSet struct {
	Rules []FormattingRule `yaml:"rules"`
}

// LoadRules loads formatting rules from a YAML file
func LoadRules(path string) ([]FormattingRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules file: %w", err)
	}
	defer file.Close()

	return LoadRulesFromReader(file)
}

// LoadRulesFromReader loads formatting rules from an io.Reader
func LoadRulesFromReader(r io.Reader) ([]FormattingRule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing YAML rules: %w", err)
	}

	for i := range set.Rules {
		set.Rules[i].Sort = SortDirection(strings.ToLower(string(set.Rules[i].Sort)))
	}

	if err := ValidateRules(set.Rules); err != nil {
		return nil, fmt.Errorf("validating rules: %w", err)
	}

	return set.Rules, nil
}

// LoadRulesFromString loads formatting rules from a YAML string
func LoadRulesFromString(yamlContent string) ([]FormattingRule, error) {
	return LoadRulesFromReader(strings.NewReader(yamlContent))
}

// ValidateRules checks required fields, sort directions and colors.
func ValidateRules(rules []FormattingRule) error {
	seen := make(map[string]bool)
	for i, r := range rules {
		if r.Sheet == "" {
			return fmt.Errorf("rule[%d]: sheet is required", i)
		}
		if r.Column == "" {
			return fmt.Errorf("rule[%d] '%s': column is required", i, r.Sheet)
		}

		switch r.Sort {
		case SortNone, SortAscending, SortDescending:
		default:
			return fmt.Errorf("rule[%d] '%s.%s': invalid sort '%s' (expected asc or desc)", i, r.Sheet, r.Column, r.Sort)
		}

		if r.Sort == SortNone && r.ColorScale == nil {
			return fmt.Errorf("rule[%d] '%s.%s': rule has neither sort nor color_scale", i, r.Sheet, r.Column)
		}

		if r.ColorScale != nil {
			if err := r.ColorScale.Validate(); err != nil {
				return fmt.Errorf("rule[%d] '%s.%s': %w", i, r.Sheet, r.Column, err)
			}
		}

		key := r.Sheet + "\x00" + r.Column
		if seen[key] {
			return fmt.Errorf("rule[%d]: duplicate rule for '%s.%s'", i, r.Sheet, r.Column)
		}
		seen[key] = true
	}
	return nil
}
