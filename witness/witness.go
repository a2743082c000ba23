// Package witness runs a program's function against recorded
// (input, expected) pairs from a .nolt training-pair file. It is
// tooling built on the VM's entry points, not a fourth core engine: a
// witness failing never means the program is invalid, only that its
// observed behavior disagrees with what was recorded for it.
//
// The wire types are small, JSON-tagged structs with no behavior of
// their own beyond (de)serialization.
package witness

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nolang-vm/nolang/format"
	"github.com/nolang-vm/nolang/vm"
)

// Record is one witness case from a .nolt file's "witnesses" array:
// the arguments to push (in declaration order, matching CALL's binding
// convention — Input[0] ends up at REF 0) and the expected result.
type Record struct {
	Input    []format.Value `json:"input"`
	Expected format.Value   `json:"expected"`
}

// TrainingPair is one line of a .nolt file: a natural-language
// intent, its assembly source, the base64-encoded raw .nolb bytes, and
// optional contracts and witnesses.
type TrainingPair struct {
	Intent    string   `json:"intent"`
	Assembly  string   `json:"assembly"`
	BinaryB64 string   `json:"binary_b64"`
	Contracts []string `json:"contracts,omitempty"`
	Witnesses []Record `json:"witnesses,omitempty"`
}

// Binary decodes the pair's base64-encoded program bytes.
func (p TrainingPair) Binary() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.BinaryB64)
}

// ReadTrainingPairs parses a .nolt file: one JSON object per line.
func ReadTrainingPairs(r io.Reader) ([]TrainingPair, error) {
	var pairs []TrainingPair
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var pair TrainingPair
		if err := json.Unmarshal(text, &pair); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pairs = append(pairs, pair)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// ReadRecords parses a bare JSON array of Records, the shape the
// `witness` CLI verb's JSON argument takes.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// Result is the outcome of running one Record against a program.
type Result struct {
	Index  int
	Record Record
	Got    format.Value
	Err    *vm.Error
	Passed bool
}

// Run executes prog's funcIdx-th function against every record and
// reports pass/fail for each. A record whose
// execution faults counts as a failure, never a panic or early abort —
// the VM's own totality guarantee extends to witness running.
func Run(prog format.Program, funcIdx int, records []Record) []Result {
	results := make([]Result, len(records))
	for i, rec := range records {
		got, err := vm.CallFunction(prog, funcIdx, rec.Input)
		results[i] = Result{
			Index:  i,
			Record: rec,
			Got:    got,
			Err:    err,
			Passed: err == nil && got.Equal(rec.Expected),
		}
	}
	return results
}

// Summary reports how many of a witness run's results passed.
func Summary(results []Result) (passed, total int) {
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return passed, len(results)
}
