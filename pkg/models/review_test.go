package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerdictFinalize(t *testing.T) {
	t.Run("approves when security and total clear the bar", func(t *testing.T) {
		v := &ReviewVerdict{Security: 8, Quality: 7, Usefulness: 7, Compliance: 6}
		v.Finalize()
		assert.Equal(t, 28, v.TotalScore)
		assert.True(t, v.Approved)
	})

	t.Run("rejects on low security regardless of other scores", func(t *testing.T) {
		v := &ReviewVerdict{Security: 6, Quality: 10, Usefulness: 10, Compliance: 10}
		v.Finalize()
		assert.Equal(t, 36, v.TotalScore)
		assert.False(t, v.Approved)
	})

	t.Run("rejects below total threshold", func(t *testing.T) {
		v := &ReviewVerdict{Security: 9, Quality: 6, Usefulness: 6, Compliance: 6}
		v.Finalize()
		assert.Equal(t, 27, v.TotalScore)
		assert.False(t, v.Approved)
	})

	t.Run("clamps out-of-range scores", func(t *testing.T) {
		v := &ReviewVerdict{Security: 15, Quality: -3, Usefulness: 11, Compliance: 5}
		v.Finalize()
		assert.Equal(t, 10, v.Security)
		assert.Equal(t, 0, v.Quality)
		assert.Equal(t, 10, v.Usefulness)
		assert.Equal(t, 25, v.TotalScore)
	})

	t.Run("model approval flag is overwritten", func(t *testing.T) {
		v := &ReviewVerdict{Approved: true, Security: 3, Quality: 9, Usefulness: 9, Compliance: 9}
		v.Finalize()
		assert.False(t, v.Approved)
	})
}

func TestVerdictVerifiable(t *testing.T) {
	tests := []struct {
		name     string
		verdict  ReviewVerdict
		expected bool
	}{
		{"approved and high total", ReviewVerdict{Security: 9, Quality: 9, Usefulness: 9, Compliance: 9}, true},
		{"approved but total below verified bar", ReviewVerdict{Security: 8, Quality: 7, Usefulness: 7, Compliance: 7}, false},
		{"not approved", ReviewVerdict{Security: 5, Quality: 10, Usefulness: 10, Compliance: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.verdict.Finalize()
			assert.Equal(t, tt.expected, tt.verdict.Verifiable())
		})
	}
}

func TestRiskLevelOrdering(t *testing.T) {
	assert.True(t, RiskLow < RiskMedium)
	assert.True(t, RiskMedium < RiskHigh)
	assert.True(t, RiskHigh < RiskCritical)
	assert.Equal(t, "critical", RiskCritical.String())
}

func TestRewardTable(t *testing.T) {
	assert.Equal(t, 500, RewardTable[EventSkillPublished])
	assert.Equal(t, 10, RewardTable[EventSkillInstalled])
	assert.Equal(t, 5, RewardTable[EventSkillStarred])
	assert.Equal(t, 50, RewardTable[EventReviewSubmitted])
	assert.Equal(t, 200, RewardTable[EventInviteAccepted])
	assert.Equal(t, 5, RewardTable[EventDailyLogin])

	_, ok := RewardTable[EventMilestone]
	assert.False(t, ok, "milestones are awarded manually, not via the reward table")
}
