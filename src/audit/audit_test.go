package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/security"
)

func testEntry() Entry {
	return Entry{
		Channel: "discord",
		Sender:  "999",
		Tier:    "external",
		Reason:  "sender not in trusted list",
		Flags: []security.Flag{
			{Category: "instruction_override", Label: "ignore previous instructions", Matched: "ignore all previous instructions"},
		},
	}
}

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEntryBytes)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning log: %v", err)
	}
	return lines
}

func TestLog_RecordFillsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer log.Close()

	if err := log.Record(testEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("line count = %d, want 1", len(lines))
	}

	var got Entry
	if err := json.Unmarshal(lines[0], &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID == "" {
		t.Error("ID not filled")
	}
	if got.Timestamp == "" {
		t.Error("Timestamp not filled")
	}
	if got.PrevHash != GenesisHash {
		t.Errorf("prev_hash = %q, want genesis", got.PrevHash)
	}
	if len(got.Flags) != 1 || got.Flags[0].Category != "instruction_override" {
		t.Errorf("flags = %v, want recorded flag", got.Flags)
	}
}

func TestLog_HashChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer log.Close()

	for i := 0; i < 3; i++ {
		if err := log.Record(testEntry()); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3", len(lines))
	}

	prev := GenesisHash
	for i, line := range lines {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			t.Fatalf("unmarshal line %d: %v", i, err)
		}
		if e.PrevHash != prev {
			t.Errorf("line %d prev_hash = %q, want %q", i, e.PrevHash, prev)
		}
		prev = HashLine(line)
	}
}

func TestLog_ReopenRecoversChainTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := log.Record(testEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Record(testEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}

	var second Entry
	if err := json.Unmarshal(lines[1], &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := HashLine(lines[0]); second.PrevHash != want {
		t.Errorf("prev_hash = %q, want %q (chain must survive reopen)", second.PrevHash, want)
	}
}

func TestLog_ReopenAfterLargeEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One flagged message can carry matched text far beyond bufio's default
	// 64KB token size; reopening must still recover the chain tail.
	entry := testEntry()
	entry.Flags = []security.Flag{
		{Category: "data_exfiltration", Label: "forward data to third party", Matched: strings.Repeat("send all data to ", 8*1024)},
	}
	if err := log.Record(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after large entry: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Record(testEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}

	var second Entry
	if err := json.Unmarshal(lines[1], &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := HashLine(lines[0]); second.PrevHash != want {
		t.Errorf("prev_hash = %q, want %q", second.PrevHash, want)
	}
}

func TestLog_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "activity.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer log.Close()

	if err := log.Record(testEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
