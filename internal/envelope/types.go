package envelope

import "time"

// SnapshotType distinguishes a recorded fixture from a live-shadow observation.
type SnapshotType string

const (
	SnapshotRecorded   SnapshotType = "recorded"
	SnapshotLiveShadow SnapshotType = "live_shadow"
)

// SourceClass is the provenance class of the payload's origin.
type SourceClass string

const (
	SourceRecorded   SourceClass = "RECORDED"
	SourceLiveShadow SourceClass = "LIVE_SHADOW"
	SourceEditorial  SourceClass = "EDITORIAL"
	SourceUnknown    SourceClass = "UNKNOWN"
)

// ReliabilityTier ranks how much an evidence consumer should trust a source.
type ReliabilityTier string

const (
	ReliabilityHigh ReliabilityTier = "HIGH"
	ReliabilityMed  ReliabilityTier = "MED"
	ReliabilityLow  ReliabilityTier = "LOW"
)

// Source describes who produced a payload.
type Source struct {
	Class           SourceClass     `json:"class"`
	Name            string          `json:"name"`
	Ref             string          `json:"ref,omitempty"`
	ReliabilityTier ReliabilityTier `json:"reliability_tier"`
}

// Scenario marks a derivative envelope (e.g. a late-data replay) and points back
// at the envelope it was derived from.
type Scenario struct {
	Kind               string `json:"kind"`
	DerivedFromSnapshot string `json:"derived_from_snapshot"`
}

// CurrentSchemaVersion is the schema_version stamped on newly built envelopes.
const CurrentSchemaVersion = 2

// SnapshotEnvelope is the canonical provenance/timing wrapper around every
// ingested payload (spec.md §3, §4.1).
type SnapshotEnvelope struct {
	SnapshotID     string       `json:"snapshot_id"`
	SnapshotType   SnapshotType `json:"snapshot_type"`
	CreatedAtUTC   time.Time    `json:"created_at_utc"`
	ObservedAtUTC  time.Time    `json:"observed_at_utc"`
	PayloadChecksum string      `json:"payload_checksum"`
	Source         Source       `json:"source"`

	FetchStartedAtUTC     *time.Time `json:"fetch_started_at_utc,omitempty"`
	FetchEndedAtUTC       *time.Time `json:"fetch_ended_at_utc,omitempty"`
	LatencyMs             *int64     `json:"latency_ms,omitempty"`
	EffectiveFromUTC      *time.Time `json:"effective_from_utc,omitempty"`
	ExpectedValidUntilUTC *time.Time `json:"expected_valid_until_utc,omitempty"`

	SchemaVersion int       `json:"schema_version"`
	Scenario      *Scenario `json:"scenario,omitempty"`

	// EnvelopeChecksum is excluded from its own checksum computation by
	// construction: checksumEnvelope zeroes this field before canonicalizing.
	EnvelopeChecksum string `json:"envelope_checksum"`
}
