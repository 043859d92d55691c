package analyzer

import (
	"fmt"
	"sync"

	"github.com/sawpanic/matchdecide/internal/envelope"
	"github.com/sawpanic/matchdecide/internal/evidence"
)

// hashLen truncates a sha256 hex digest to the spec's 32-character input/output hashes.
const hashLen = 32

// EvidenceChecksum computes payload_checksum_of_evidence (spec.md §4.4 stability
// hashing, first bullet): sha256(canonical(serialized_evidence_pack)).
func EvidenceChecksum(pack evidence.Pack) (string, error) {
	return envelope.Checksum(pack)
}

// InputHash computes input_hash = sha256(f"{match_id}:{evidence_hash}")[:32].
func InputHash(matchID, evidenceHash string) (string, error) {
	sum := envelope.ChecksumBytes([]byte(fmt.Sprintf("%s:%s", matchID, evidenceHash)))
	return sum[:hashLen], nil
}

// outputHashPayload is the canonicalized composite output_hash is derived from.
type outputHashPayload struct {
	Status    OverallStatus `json:"status"`
	Version   string        `json:"version"`
	Decisions []Decision    `json:"decisions"`
	Flags     []string      `json:"flags"`
	Counts    Counts        `json:"counts"`
}

// OutputHash computes output_hash = sha256(canonical({status, version,
// decisions, analysis_run.flags, analysis_run.counts}))[:32].
func OutputHash(r Result) (string, error) {
	sum, err := envelope.Checksum(outputHashPayload{
		Status:    r.Status,
		Version:   r.Version,
		Decisions: r.Decisions,
		Flags:     r.AnalysisRun.Flags,
		Counts:    r.AnalysisRun.Counts,
	})
	if err != nil {
		return "", err
	}
	return sum[:hashLen], nil
}

// divergenceEntry is what the process-wide guardrail map stores per input_hash.
type divergenceEntry struct {
	outputHash string
}

// GuardrailStore is the process-wide input_hash → previous output_hash map
// spec.md §4.4 describes. It is safe for concurrent use by a batch runner's
// worker pool.
type GuardrailStore struct {
	mu      sync.Mutex
	entries map[string]divergenceEntry
}

// NewGuardrailStore builds an empty store.
func NewGuardrailStore() *GuardrailStore {
	return &GuardrailStore{entries: make(map[string]divergenceEntry)}
}

// CheckAndRecord consults the store for inputHash, reports whether
// outputHash diverges from any previously recorded value, and always
// records outputHash as the latest for inputHash (spec.md §4.4 last bullet).
func (g *GuardrailStore) CheckAndRecord(inputHash, outputHash string) (diverged bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev, seen := g.entries[inputHash]
	diverged = seen && prev.outputHash != outputHash
	g.entries[inputHash] = divergenceEntry{outputHash: outputHash}
	return diverged
}
