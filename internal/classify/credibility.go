package classify

import (
	"math"

	"github.com/tokenpulse/oracle/internal/domain"
)

// Credibility caps. Accounts above these thresholds get no extra trust.
const (
	followerCap   = 100_000
	engagementCap = 0.05
	accountAgeCap = 365
)

// ScoreCredibility maps account metadata to a trust weight in [0,1] as a
// weighted sum of capped follower, engagement and age sub-scores. A bot
// flag forces credibility to zero outright rather than down-weighting.
func ScoreCredibility(m domain.AuthorMetrics) float64 {
	if m.IsBot {
		return 0
	}

	followerScore := math.Min(float64(m.Followers)/followerCap, 1)
	engagementScore := math.Min(m.EngagementRate/engagementCap, 1)
	ageScore := math.Min(float64(m.AccountAgeDays)/accountAgeCap, 1)

	return 0.5*followerScore + 0.3*engagementScore + 0.2*ageScore
}
