package envelope

import (
	"encoding/json"
	"time"
)

// MissingReason enumerates why ParseStoredPayload had to synthesize or patch metadata.
type MissingReason string

const (
	ReasonLegacyNoEnvelope    MissingReason = "legacy_no_envelope"
	ReasonMissingObservedAt   MissingReason = "missing_observed_at"
)

// OnMissing is invoked (never raising) whenever parsing has to fall back to a
// synthesized or defaulted value.
type OnMissing func(reason MissingReason)

// OnIntegrityFail is invoked (never raising) when a present envelope_checksum
// does not match the recomputed checksum. The record is still returned.
type OnIntegrityFail func(snapshotID string, reason string)

// storedV2 is the `{metadata, payload}` wire shape.
type storedV2 struct {
	Metadata json.RawMessage `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

// legacyMetadata captures the historical flat field names that predate the v2 envelope.
type legacyMetadata struct {
	SnapshotID    string  `json:"snapshot_id"`
	ObservedAt    *string `json:"observed_at"`
	Checksum      *string `json:"checksum"`
	FetchStartedAt *string `json:"fetch_started_at"`
	FetchEndedAt   *string `json:"fetch_ended_at"`
}

// ParseStoredPayload accepts both the v2 `{metadata, payload}` format and a
// legacy flat payload (the whole document is the payload, with no envelope).
// It never raises: every optional/missing field is patched with a documented
// fallback and reported through onMissing / onIntegrityFail.
func ParseStoredPayload(storedJSON []byte, fallbackCreatedAt time.Time, onMissing OnMissing, onIntegrityFail OnIntegrityFail) (SnapshotEnvelope, json.RawMessage, error) {
	if onMissing == nil {
		onMissing = func(MissingReason) {}
	}
	if onIntegrityFail == nil {
		onIntegrityFail = func(string, string) {}
	}

	var v2 storedV2
	if err := json.Unmarshal(storedJSON, &v2); err == nil && len(v2.Metadata) > 0 && len(v2.Payload) > 0 {
		var env SnapshotEnvelope
		if err := json.Unmarshal(v2.Metadata, &env); err != nil {
			return SnapshotEnvelope{}, nil, err
		}
		if env.ObservedAtUTC.IsZero() {
			onMissing(ReasonMissingObservedAt)
			env.ObservedAtUTC = env.CreatedAtUTC
		}
		verifyIntegrity(env, onIntegrityFail)
		return env, v2.Payload, nil
	}

	// Legacy flat payload: the document itself is the payload.
	onMissing(ReasonLegacyNoEnvelope)
	var payloadValue interface{} = json.RawMessage(storedJSON)
	var decoded interface{}
	if err := json.Unmarshal(storedJSON, &decoded); err == nil {
		payloadValue = decoded
	}
	payloadChecksum, err := ComputePayloadChecksum(payloadValue)
	if err != nil {
		return SnapshotEnvelope{}, nil, err
	}

	var legacy legacyMetadata
	_ = json.Unmarshal(storedJSON, &legacy) // best-effort; absent fields stay zero

	createdAt := fallbackCreatedAt.UTC()
	observedAt := createdAt
	if legacy.ObservedAt != nil {
		if t, err := time.Parse(time.RFC3339, *legacy.ObservedAt); err == nil {
			observedAt = t.UTC()
		} else {
			onMissing(ReasonMissingObservedAt)
		}
	} else {
		onMissing(ReasonMissingObservedAt)
	}

	snapshotID := legacy.SnapshotID
	if snapshotID == "" {
		snapshotID = payloadChecksum[:16]
	}

	env := SnapshotEnvelope{
		SnapshotID:      snapshotID,
		SnapshotType:    SnapshotRecorded,
		CreatedAtUTC:    createdAt,
		ObservedAtUTC:   observedAt,
		PayloadChecksum: payloadChecksum,
		Source: Source{
			Class:           SourceRecorded,
			Name:            "legacy",
			ReliabilityTier: ReliabilityHigh,
		},
		SchemaVersion: CurrentSchemaVersion,
	}
	checksum, err := checksumEnvelope(env)
	if err != nil {
		return SnapshotEnvelope{}, nil, err
	}
	env.EnvelopeChecksum = checksum

	return env, json.RawMessage(storedJSON), nil
}

func verifyIntegrity(env SnapshotEnvelope, onIntegrityFail OnIntegrityFail) {
	if env.EnvelopeChecksum == "" {
		return
	}
	recomputed, err := checksumEnvelope(env)
	if err != nil {
		onIntegrityFail(env.SnapshotID, "recompute_failed: "+err.Error())
		return
	}
	if recomputed != env.EnvelopeChecksum {
		onIntegrityFail(env.SnapshotID, "checksum_mismatch")
	}
}
