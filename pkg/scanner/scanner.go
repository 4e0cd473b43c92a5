// Package scanner pattern-matches sampled source files against a fixed table
// of dangerous constructs. It is a pure pre-filter: cheap and deterministic,
// run before any model call so unambiguously hostile repositories never cost
// a review.
package scanner

import (
	"fmt"
	"regexp"

	"github.com/skillhubhq/skillhub/pkg/models"
)

type pattern struct {
	re    *regexp.Regexp
	label string
	tier  models.RiskLevel
}

// patterns is the ordered rule table. Order is stable so issue lists are
// reproducible across runs.
var patterns = []pattern{
	{regexp.MustCompile(`rm\s+-rf\s+[/~]`), "destructive filesystem command", models.RiskCritical},
	{regexp.MustCompile(`:\(\)\s*\{\s*:\|:\s*&\s*\}\s*;`), "fork bomb", models.RiskCritical},
	{regexp.MustCompile(`curl[^|\n]*\|\s*(ba)?sh`), "remote script piped to shell", models.RiskCritical},
	{regexp.MustCompile(`wget[^|\n]*\|\s*(ba)?sh`), "remote script piped to shell", models.RiskCritical},
	{regexp.MustCompile(`base64\s+(-d|--decode)[^|\n]*\|\s*(ba)?sh`), "encoded payload execution", models.RiskCritical},
	{regexp.MustCompile(`mkfs\.\w+`), "filesystem format command", models.RiskCritical},
	{regexp.MustCompile(`\beval\s*\(`), "dynamic code evaluation", models.RiskHigh},
	{regexp.MustCompile(`\bexec\s*\(`), "dynamic code execution", models.RiskHigh},
	{regexp.MustCompile(`child_process|subprocess\.(Popen|call|run)\s*\(\s*[^,\)]*shell\s*=\s*True`), "shell subprocess invocation", models.RiskHigh},
	{regexp.MustCompile(`chmod\s+777`), "world-writable permissions", models.RiskMedium},
	{regexp.MustCompile(`(?i)(api[_-]?key|secret|password)\s*=\s*["'][A-Za-z0-9+/]{16,}["']`), "hardcoded credential", models.RiskMedium},
	{regexp.MustCompile(`\bnc\s+(-e|-c)\b`), "netcat reverse shell", models.RiskHigh},
}

// Scan runs the rule table over every file. Every match appends a
// "<path>: <label>" issue; the result's risk level is the maximum tier seen
// and the scan passes unless that maximum is critical.
func Scan(files []models.CodeFile) models.ScanResult {
	result := models.ScanResult{
		Passed:    true,
		RiskLevel: models.RiskLow,
	}

	for _, file := range files {
		for _, p := range patterns {
			if p.re.MatchString(file.Content) {
				result.Issues = append(result.Issues, fmt.Sprintf("%s: %s", file.Path, p.label))
				if p.tier > result.RiskLevel {
					result.RiskLevel = p.tier
				}
			}
		}
	}

	result.Passed = result.RiskLevel != models.RiskCritical
	return result
}
