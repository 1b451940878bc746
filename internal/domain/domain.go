package domain

import (
	"context"
	"time"
)

// Label is the sentiment class assigned to a signal or window.
type Label string

const (
	LabelBullish Label = "bullish"
	LabelNeutral Label = "neutral"
	LabelBearish Label = "bearish"
)

// Intensity is the qualitative strength of expressed sentiment.
type Intensity string

const (
	IntensityWeak     Intensity = "weak"
	IntensityModerate Intensity = "moderate"
	IntensityStrong   Intensity = "strong"
)

// Trend classifies momentum across consecutive window snapshots.
type Trend string

const (
	TrendRising           Trend = "rising"
	TrendFalling          Trend = "falling"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// --- Model types ---

// AuthorMetrics is the account metadata a signal's author carries.
type AuthorMetrics struct {
	Followers      int     `json:"followers"`
	EngagementRate float64 `json:"engagement_rate"`
	AccountAgeDays int     `json:"account_age_days"`
	Verified       bool    `json:"verified"`
	IsBot          bool    `json:"is_bot"`
}

// Engagement holds per-post interaction counts.
type Engagement struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
}

// RawSignal is one unit of raw social content about an asset.
// Immutable once produced by a collector.
type RawSignal struct {
	ID         string        `json:"id"`
	AssetID    string        `json:"asset_id"`
	Text       string        `json:"text"`
	Author     AuthorMetrics `json:"author"`
	Engagement Engagement    `json:"engagement"`
	ObservedAt time.Time     `json:"observed_at"`
}

// Classification is the output of the sentiment classifier for one text.
type Classification struct {
	Label        Label   `json:"label"`
	ModelVersion string  `json:"model_version"`
	Confidence   float64 `json:"confidence"`
	ProbBullish  float64 `json:"prob_bullish"`
	ProbNeutral  float64 `json:"prob_neutral"`
	ProbBearish  float64 `json:"prob_bearish"`
}

// ClassifiedSignal is a RawSignal with its classification attached.
type ClassifiedSignal struct {
	RawSignal
	Classification
}

// ScoredSignal is a ClassifiedSignal with credibility, intensity and the
// final per-signal numeric score in [0,100].
type ScoredSignal struct {
	ClassifiedSignal
	Credibility  float64   `json:"credibility"`
	Intensity    Intensity `json:"intensity"`
	NumericScore float64   `json:"numeric_score"`
}

// WindowSnapshot is the aggregate of all signals for one asset within one
// closed time bucket. Immutable after creation; later windows supersede it.
type WindowSnapshot struct {
	AssetID       string    `json:"asset_id"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	Score         float64   `json:"score"`
	Label         Label     `json:"label"`
	Confidence    float64   `json:"confidence"`
	SampleSize    int       `json:"sample_size"`
	BullishCount  int       `json:"bullish_count"`
	NeutralCount  int       `json:"neutral_count"`
	BearishCount  int       `json:"bearish_count"`
	AvgEngagement float64   `json:"avg_engagement"`
}

// NodeSubmission is one node's score for one asset and epoch.
type NodeSubmission struct {
	NodeID      string    `json:"node_id"`
	AssetID     string    `json:"asset_id"`
	Epoch       int64     `json:"epoch"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ConsensusResult reconciles all valid submissions for one (asset, epoch).
// Immutable once finalized.
type ConsensusResult struct {
	AssetID            string  `json:"asset_id"`
	Epoch              int64   `json:"epoch"`
	Score              float64 `json:"score"`
	Confidence         float64 `json:"confidence"`
	ParticipatingNodes int     `json:"participating_nodes"`
	RejectedOutliers   int     `json:"rejected_outliers"`
	QuorumMet          bool    `json:"quorum_met"`
}

// TrendResult is a derived view over ordered window snapshots. It is
// recomputed on demand and never persisted as authoritative state.
type TrendResult struct {
	AssetID   string  `json:"asset_id"`
	Lookback  int     `json:"lookback"`
	Trend     Trend   `json:"trend"`
	Magnitude float64 `json:"magnitude"`
}

// --- Interfaces ---

// Collector fetches raw signals from one social source. The core never
// needs to know which source produced a signal.
type Collector interface {
	Name() string
	Fetch(ctx context.Context) ([]RawSignal, error)
}

// HistoryStore is the append-only, bounded-retention ledger of snapshots
// and consensus results per asset.
type HistoryStore interface {
	AppendSnapshot(snap WindowSnapshot)
	AppendConsensus(result ConsensusResult)
	LatestSnapshot(assetID string) (WindowSnapshot, bool)
	RecentSnapshots(assetID string, n int) []WindowSnapshot
	SnapshotsSince(assetID string, since time.Time) []WindowSnapshot
	LatestConsensus(assetID string) (ConsensusResult, bool)
	RecentConsensus(assetID string, n int) []ConsensusResult
}

// SnapshotSink receives finalized window snapshots (persistence, cache,
// fan-out). Implementations must not block the aggregation lane.
type SnapshotSink interface {
	PublishSnapshot(ctx context.Context, snap WindowSnapshot)
}

// ConsensusSink receives finalized consensus results.
type ConsensusSink interface {
	PublishConsensus(ctx context.Context, result ConsensusResult)
}

// SnapshotRepository persists finalized snapshots durably.
type SnapshotRepository interface {
	InsertSnapshot(ctx context.Context, snap WindowSnapshot) error
	ListSnapshots(ctx context.Context, assetID string, from, to time.Time) ([]WindowSnapshot, error)
}

// ConsensusRepository persists finalized consensus results durably.
type ConsensusRepository interface {
	InsertConsensus(ctx context.Context, result ConsensusResult) error
	GetConsensus(ctx context.Context, assetID string, epoch int64) (*ConsensusResult, error)
}
