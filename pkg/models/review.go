package models

import "time"

// Approval thresholds. Approved and Verified are always recomputed from the
// sub-scores; a model's self-reported approval flag is never trusted.
const (
	MinSecurityScore  = 7
	MinApprovalTotal  = 28
	MinVerifiedTotal  = 35
	MaxSubScore       = 10
	ReviewTemperature = 0.2
)

// ReviewVerdict is the structured outcome of an AI quality review.
// TotalScore is the sum of the four sub-scores (0-40).
type ReviewVerdict struct {
	Approved   bool      `json:"approved"`
	Security   int       `json:"security_score"`
	Quality    int       `json:"quality_score"`
	Usefulness int       `json:"usefulness_score"`
	Compliance int       `json:"compliance_score"`
	TotalScore int       `json:"total_score"`
	Issues     []string  `json:"issues"`
	Suggestion []string  `json:"suggestions"`
	Reasoning  string    `json:"reasoning"`
	Model      string    `json:"model,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Finalize clamps the sub-scores into [0,10], recomputes the total and
// applies the authoritative approval rule: security >= 7 and total >= 28.
func (v *ReviewVerdict) Finalize() {
	v.Security = clampScore(v.Security)
	v.Quality = clampScore(v.Quality)
	v.Usefulness = clampScore(v.Usefulness)
	v.Compliance = clampScore(v.Compliance)
	v.TotalScore = v.Security + v.Quality + v.Usefulness + v.Compliance
	v.Approved = v.Security >= MinSecurityScore && v.TotalScore >= MinApprovalTotal
}

// Verifiable reports whether the verdict clears the bar for the listing
// "verified" flag, which is stricter than plain approval.
func (v *ReviewVerdict) Verifiable() bool {
	return v.Approved && v.TotalScore >= MinVerifiedTotal
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > MaxSubScore {
		return MaxSubScore
	}
	return s
}

// RiskLevel is the ordinal severity reported by the static scanner.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ScanResult is the static scanner's verdict. Passed is false only when a
// critical-tier pattern matched.
type ScanResult struct {
	Passed    bool      `json:"passed"`
	Issues    []string  `json:"issues"`
	RiskLevel RiskLevel `json:"risk_level"`
}
