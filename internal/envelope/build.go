package envelope

import "time"

// ComputePayloadChecksum returns hex(sha256(canonical(payload))). Payload
// checksums are a pure function of the payload and must never change when
// only envelope metadata changes.
func ComputePayloadChecksum(payload interface{}) (string, error) {
	return Checksum(payload)
}

// checksumEnvelope computes envelope_checksum over every field of env except
// EnvelopeChecksum itself, per spec.md §4.1.
func checksumEnvelope(env SnapshotEnvelope) (string, error) {
	env.EnvelopeChecksum = ""
	return Checksum(env)
}

// BuildRecorded constructs an envelope for an ingested recorded-fixture payload.
func BuildRecorded(payload interface{}, snapshotID string, createdAt time.Time) (SnapshotEnvelope, error) {
	payloadChecksum, err := ComputePayloadChecksum(payload)
	if err != nil {
		return SnapshotEnvelope{}, err
	}

	env := SnapshotEnvelope{
		SnapshotID:      snapshotID,
		SnapshotType:    SnapshotRecorded,
		CreatedAtUTC:    createdAt.UTC(),
		ObservedAtUTC:   createdAt.UTC(),
		PayloadChecksum: payloadChecksum,
		Source: Source{
			Class:           SourceRecorded,
			Name:            "recorded",
			ReliabilityTier: ReliabilityHigh,
		},
		SchemaVersion: CurrentSchemaVersion,
	}

	checksum, err := checksumEnvelope(env)
	if err != nil {
		return SnapshotEnvelope{}, err
	}
	env.EnvelopeChecksum = checksum
	return env, nil
}

// LiveShadowOptions carries the optional timing fields a live-shadow fetch may supply.
type LiveShadowOptions struct {
	SourceName          string
	SourceRef           string
	ObservedAtUTC       time.Time
	FetchStartedAtUTC   *time.Time
	FetchEndedAtUTC     *time.Time
	LatencyMs           *int64
	EffectiveFromUTC    *time.Time
	ExpectedValidUntil  *time.Time
}

// BuildLiveShadow constructs an envelope for a live-shadow observation. Live
// shadow data can never influence persisted decisions until an operator
// activates it (spec.md §1): this constructor only wraps and never persists.
func BuildLiveShadow(payload interface{}, snapshotID string, createdAt time.Time, opts LiveShadowOptions) (SnapshotEnvelope, error) {
	payloadChecksum, err := ComputePayloadChecksum(payload)
	if err != nil {
		return SnapshotEnvelope{}, err
	}

	observedAt := opts.ObservedAtUTC
	if observedAt.IsZero() {
		observedAt = createdAt
	}

	env := SnapshotEnvelope{
		SnapshotID:      snapshotID,
		SnapshotType:    SnapshotLiveShadow,
		CreatedAtUTC:    createdAt.UTC(),
		ObservedAtUTC:   observedAt.UTC(),
		PayloadChecksum: payloadChecksum,
		Source: Source{
			Class:           SourceLiveShadow,
			Name:            opts.SourceName,
			Ref:             opts.SourceRef,
			ReliabilityTier: ReliabilityMed,
		},
		FetchStartedAtUTC:     opts.FetchStartedAtUTC,
		FetchEndedAtUTC:       opts.FetchEndedAtUTC,
		LatencyMs:             opts.LatencyMs,
		EffectiveFromUTC:      opts.EffectiveFromUTC,
		ExpectedValidUntilUTC: opts.ExpectedValidUntil,
		SchemaVersion:         CurrentSchemaVersion,
	}

	checksum, err := checksumEnvelope(env)
	if err != nil {
		return SnapshotEnvelope{}, err
	}
	env.EnvelopeChecksum = checksum
	return env, nil
}

// BuildReplayScenario wraps a late-data replay of an existing snapshot. It MUST
// preserve the original payload_checksum: callers pass the same payload that
// produced originalSnapshotID.
func BuildReplayScenario(payload interface{}, snapshotID string, createdAt time.Time, originalSnapshotID string, kind string) (SnapshotEnvelope, error) {
	env, err := BuildLiveShadow(payload, snapshotID, createdAt, LiveShadowOptions{ObservedAtUTC: createdAt})
	if err != nil {
		return SnapshotEnvelope{}, err
	}
	env.Scenario = &Scenario{Kind: kind, DerivedFromSnapshot: originalSnapshotID}

	checksum, err := checksumEnvelope(env)
	if err != nil {
		return SnapshotEnvelope{}, err
	}
	env.EnvelopeChecksum = checksum
	return env, nil
}
