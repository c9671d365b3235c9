// Package modules exposes the kernel module table published in
// /proc/modules as typed records. Each line of the table is decoded
// independently, so one malformed entry never hides the rest of the
// table from the caller.
package modules

import (
	"fmt"
	"strings"
)

// DefaultPath is the pseudo-file the kernel publishes the module table in.
const DefaultPath = "/proc/modules"

// State is the lifecycle state of a loaded module as reported by the kernel.
type State string

const (
	StateLive      State = "Live"
	StateLoading   State = "Loading"
	StateUnloading State = "Unloading"
	StateUnknown   State = "Unknown"
)

// ParseState maps a state literal to its State. The match is
// case-sensitive; unrecognized literals map to StateUnknown rather than
// failing the record, since kernels may introduce new state literals.
func ParseState(s string) State {
	switch State(s) {
	case StateLive, StateLoading, StateUnloading:
		return State(s)
	default:
		return StateUnknown
	}
}

// Record is one decoded line of the module table. Records are
// constructed fresh for each line and never mutated after decode.
type Record struct {
	// Name is the module identifier, taken verbatim from the line.
	Name string `json:"name"`
	// SizeBytes is the memory footprint of the module.
	SizeBytes uint64 `json:"size_bytes"`
	// Instances counts active references/uses of the module.
	Instances uint64 `json:"instance_count"`
	// Dependencies lists the modules this one depends on, in table
	// order. Empty when the source field is the "-" sentinel.
	Dependencies []string `json:"dependencies,omitempty"`
	// State is the lifecycle state reported by the kernel.
	State State `json:"state"`
	// Address is the kernel memory offset of the module. Nil when the
	// field is absent, which happens when the caller lacks the
	// privilege to see it; absence is not an error.
	Address *uint64 `json:"load_address,omitempty"`
}

// String reassembles the record into module-table line form, fields in
// positional order. A record whose name and dependency names contain no
// whitespace or commas decodes back to an equal record.
func (r Record) String() string {
	deps := "-"
	if len(r.Dependencies) > 0 {
		deps = strings.Join(r.Dependencies, ",")
	}
	line := fmt.Sprintf("%s %d %d %s %s", r.Name, r.SizeBytes, r.Instances, deps, r.State)
	if r.Address != nil {
		line += fmt.Sprintf(" 0x%x", *r.Address)
	}
	return line
}

// ParseAll decodes a batch of module-table lines, failing on the first
// malformed one.
func ParseAll(lines []string) ([]Record, error) {
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		record, err := Decode(line)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// All opens the live module table and collects every record. It fails
// on the first I/O or decode error; use Stream directly to keep reading
// past malformed lines.
func All() ([]Record, error) {
	stream, err := Open()
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	return stream.Collect()
}
