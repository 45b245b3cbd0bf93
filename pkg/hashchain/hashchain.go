// Package hashchain implements the canonical hashing and verification
// primitives behind the audit log's SHA-256 hash chain (spec.md §4.4).
//
// Grounded on pkg/evidence/recorder/hash.go's HashContent (SHA-256, hex
// output), extended from a single-value content hash into the ordered-field
// chain hash the governance core requires.
package hashchain

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
)

// GenesisMarker is the sentinel previous-hash value for the first record in
// a chain (or the first record after a retention boundary reset). It is
// structurally distinguishable from any legal 64-hex-digit hash value.
const GenesisMarker = "GENESIS_NULL"

// Record is the minimal set of fields hashed into the chain. Callers adapt
// their storage-layer record type into this shape before calling Compute or
// Verify.
type Record struct {
	TraceID         string
	Timestamp       string
	AgentID         string
	Tool            string
	Parameters      map[string]any
	Result          string
	Reason          string
	DurationMs      int64
	FailureCategory string
}

// PreviousMarker returns the literal previous-marker token for the hash
// input: GENESIS_NULL when prevHash is empty (no predecessor), or
// "CHAIN:{prevHash}" otherwise.
func PreviousMarker(prevHash string) string {
	if prevHash == "" {
		return GenesisMarker
	}
	return "CHAIN:" + prevHash
}

// canonicalParams serializes parameters with object keys sorted
// lexicographically at the top level. Absent parameters serialize to the
// empty string.
func canonicalParams(params map[string]any) (string, error) {
	if params == nil {
		return "", nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, params[k])
	}
	// Encode as a flat, deterministically-ordered structure: a JSON object
	// built key-by-key via a raw buffer so key order is never reshuffled
	// by encoding/json's map handling.
	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		vb, err := json.Marshal(params[k])
		if err != nil {
			return "", err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return string(buf), nil
}

// Compute returns the deterministic SHA-256 hash, as 64 lower-hex
// characters, of rec chained after prevHash.
func Compute(rec Record, prevHash string) (string, error) {
	params, err := canonicalParams(rec.Parameters)
	if err != nil {
		return "", err
	}
	fields := []any{
		PreviousMarker(prevHash),
		rec.TraceID,
		rec.Timestamp,
		rec.AgentID,
		rec.Tool,
		json.RawMessage(nonEmptyOr(params, `""`)),
		rec.Result,
		rec.Reason,
		strconv.FormatInt(rec.DurationMs, 10),
		rec.FailureCategory,
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func nonEmptyOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Verify reconstructs the expected hash for rec given prevHash and compares
// it to storedHash using a constant-time comparison. Unequal-length buffers
// short-circuit to false.
func Verify(rec Record, prevHash, storedHash string) (bool, error) {
	expected, err := Compute(rec, prevHash)
	if err != nil {
		return false, err
	}
	if len(expected) != len(storedHash) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(storedHash)) == 1, nil
}

// ChainEntry is one record plus its stored previous-hash and hash, as read
// back from storage in ascending id order.
type ChainEntry struct {
	ID         int64
	PrevHash   string
	Hash       string
	Record     Record
}

// VerifyResult reports the outcome of walking a chain.
type VerifyResult struct {
	Valid         bool
	BrokenAt      int64
	TotalEvents   int
	VerifiedEvents int
}

// VerifyChain walks entries in ascending id order, maintaining a running
// previous-hash (initially empty, i.e. GenesisMarker), and checks that each
// entry's stored previous-hash matches the running value and that its own
// hash verifies. The first failure is reported as BrokenAt; a clean pass
// reports Valid=true.
func VerifyChain(entries []ChainEntry) (VerifyResult, error) {
	result := VerifyResult{Valid: true, TotalEvents: len(entries)}
	running := ""
	for _, e := range entries {
		if e.PrevHash != running {
			result.Valid = false
			result.BrokenAt = e.ID
			return result, nil
		}
		ok, err := Verify(e.Record, e.PrevHash, e.Hash)
		if err != nil {
			return result, err
		}
		if !ok {
			result.Valid = false
			result.BrokenAt = e.ID
			return result, nil
		}
		result.VerifiedEvents++
		running = e.Hash
	}
	return result, nil
}
