package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tokenpulse/oracle/internal/domain"
)

// Text templates by rough sentiment, %s is the asset symbol. Mirrors the
// shape of real collected posts so the classifier sees realistic input.
var simulatedTemplates = []string{
	"Bullish on $%s! Great project with amazing potential",
	"$%s is the future. HODL and never look back",
	"Just bought more $%s, this is going to moon",
	"$%s has incredible fundamentals, long term hold",
	"The $%s team keeps shipping, very impressed",
	"Bearish on $%s, too much hype and no substance",
	"$%s looks like a rug, stay away",
	"Not sure about $%s yet, need to do more research",
	"$%s is consolidating, waiting for a breakout",
	"Love the $%s community, great vibes today",
	"Dumping my $%s bag, this chart is ugly",
	"$%s volume picking up, something is brewing",
}

// SimulatedCollector produces synthetic signals for every tracked asset.
// It stands in for a live social feed in environments without one.
type SimulatedCollector struct {
	assets        []string
	perAssetCount int
	clock         clockwork.Clock
	rng           *rand.Rand
}

func NewSimulatedCollector(assets []string, perAssetCount int, clock clockwork.Clock, seed int64) *SimulatedCollector {
	if perAssetCount <= 0 {
		perAssetCount = 5
	}
	return &SimulatedCollector{
		assets:        assets,
		perAssetCount: perAssetCount,
		clock:         clock,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (c *SimulatedCollector) Name() string { return "simulated" }

func (c *SimulatedCollector) Fetch(ctx context.Context) ([]domain.RawSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	signals := make([]domain.RawSignal, 0, len(c.assets)*c.perAssetCount)
	for _, asset := range c.assets {
		for i := 0; i < c.perAssetCount; i++ {
			template := simulatedTemplates[c.rng.Intn(len(simulatedTemplates))]
			signals = append(signals, domain.RawSignal{
				ID:      uuid.NewString(),
				AssetID: asset,
				Text:    fmt.Sprintf(template, strings.ToUpper(asset)),
				Author: domain.AuthorMetrics{
					Followers:      c.rng.Intn(50000),
					EngagementRate: c.rng.Float64() * 0.1,
					AccountAgeDays: 30 + c.rng.Intn(2000),
					Verified:       c.rng.Intn(10) == 0,
				},
				Engagement: domain.Engagement{
					Likes:   c.rng.Intn(500),
					Reposts: c.rng.Intn(200),
					Replies: c.rng.Intn(100),
				},
				ObservedAt: now,
			})
		}
	}
	return signals, nil
}
