package hashchain

import (
	"regexp"
	"strings"
	"testing"
)

var hexHash = regexp.MustCompile(`^[0-9a-f]{64}$`)

func sampleRecord(i int) Record {
	return Record{
		TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
		Timestamp:  "2026-08-02T00:00:0" + string(rune('0'+i)) + "Z",
		AgentID:    "agent-1",
		Tool:       "file_read",
		Parameters: map[string]any{"path": "/tmp/x", "n": i},
		Result:     "allowed",
	}
}

func TestComputeDeterministic(t *testing.T) {
	rec := sampleRecord(1)
	h1, err := Compute(rec, "")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Compute(rec, "")
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatalf("Compute is not deterministic: %q != %q", h1, h2)
	}
	if !hexHash.MatchString(h1) {
		t.Fatalf("hash %q is not 64 lower-hex chars", h1)
	}
}

func TestComputeKeyOrderIndependence(t *testing.T) {
	rec1 := sampleRecord(1)
	rec1.Parameters = map[string]any{"a": 1, "b": 2}
	rec2 := sampleRecord(1)
	rec2.Parameters = map[string]any{"b": 2, "a": 1}
	h1, _ := Compute(rec1, "")
	h2, _ := Compute(rec2, "")
	if h1 != h2 {
		t.Fatalf("canonical params must be order-independent on map iteration")
	}
}

func TestPreviousMarkerSentinel(t *testing.T) {
	if PreviousMarker("") != GenesisMarker {
		t.Fatalf("expected genesis marker for empty prevHash")
	}
	if got := PreviousMarker("abc123"); got != "CHAIN:abc123" {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(GenesisMarker, ":") {
		t.Fatalf("genesis marker must be structurally distinct from CHAIN: hashes")
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	rec := sampleRecord(1)
	h, err := Compute(rec, "prevhash")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := Verify(rec, "prevhash", h)
	if err != nil || !ok {
		t.Fatalf("expected verify to succeed, ok=%v err=%v", ok, err)
	}
}

func TestVerifyRejectsTamperedHash(t *testing.T) {
	rec := sampleRecord(1)
	ok, err := Verify(rec, "prevhash", strings.Repeat("a", 64))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected verify to fail for tampered hash")
	}
}

func TestVerifyRejectsUnequalLength(t *testing.T) {
	rec := sampleRecord(1)
	ok, err := Verify(rec, "prevhash", "short")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected verify to short-circuit false on length mismatch")
	}
}

func buildChain(t *testing.T, n int) []ChainEntry {
	t.Helper()
	entries := make([]ChainEntry, 0, n)
	prev := ""
	for i := 1; i <= n; i++ {
		rec := sampleRecord(i)
		h, err := Compute(rec, prev)
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, ChainEntry{ID: int64(i), PrevHash: prev, Hash: h, Record: rec})
		prev = h
	}
	return entries
}

func TestVerifyChainClean(t *testing.T) {
	entries := buildChain(t, 5)
	result, err := VerifyChain(entries)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid || result.TotalEvents != 5 || result.VerifiedEvents != 5 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestVerifyChainBreakLocalization(t *testing.T) {
	entries := buildChain(t, 3)
	entries[1].Hash = strings.Repeat("d", 64) // corrupt record id=2's hash

	result, err := VerifyChain(entries)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Fatalf("expected chain to be invalid")
	}
	if result.BrokenAt != 2 {
		t.Fatalf("expected brokenAt=2, got %d", result.BrokenAt)
	}
	if result.VerifiedEvents != 1 {
		t.Fatalf("expected verifiedEvents=1, got %d", result.VerifiedEvents)
	}
}
