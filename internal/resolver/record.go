// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

const (
	// StatusComplete marks a record whose four sub-versions are all present.
	StatusComplete Status = "complete"
	// StatusPartial marks a record with at least one absent sub-version.
	StatusPartial Status = "partial"
)

type (
	// Status is derived from sub-version presence; it is never set by hand.
	Status string

	// SubVersions are the dependent versions resolved for one identifier.
	// A nil field means the value could not be resolved.
	SubVersions struct {
		YarnMappings *string
		FabricAPI    *string
		Paper        *string
		DataVersion  *int
	}

	// VersionRecord is the resolution result for one release identifier.
	// Build records with NewVersionRecord; they are not modified afterwards.
	VersionRecord struct {
		Identifier   string  `json:"minecraft"`
		YarnMappings *string `json:"yarn_mappings"`
		FabricAPI    *string `json:"fabric_api"`
		Paper        *string `json:"paper"`
		DataVersion  *int    `json:"data_version"`
		Status       Status  `json:"status"`
	}

	// Resolution is the ordered mapping identifier -> VersionRecord produced by
	// one resolution pass. Order is catalog order, newest first.
	Resolution struct {
		records []VersionRecord
		index   map[string]int
	}
)

// NewVersionRecord builds the record for id and derives its status.
func NewVersionRecord(id string, sub SubVersions) VersionRecord {
	rec := VersionRecord{
		Identifier:   id,
		YarnMappings: cloneString(sub.YarnMappings),
		FabricAPI:    cloneString(sub.FabricAPI),
		Paper:        cloneString(sub.Paper),
		DataVersion:  cloneInt(sub.DataVersion),
		Status:       StatusPartial,
	}
	if rec.YarnMappings != nil && rec.FabricAPI != nil && rec.Paper != nil && rec.DataVersion != nil {
		rec.Status = StatusComplete
	}
	return rec
}

// IsComplete reports whether every sub-version is present.
func (r VersionRecord) IsComplete() bool {
	return r.Status == StatusComplete
}

// NewResolution builds a Resolution from records in the given order.
// When an identifier repeats, the first record wins.
func NewResolution(records []VersionRecord) Resolution {
	res := Resolution{
		records: make([]VersionRecord, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for _, rec := range records {
		if _, dup := res.index[rec.Identifier]; dup {
			continue
		}
		res.index[rec.Identifier] = len(res.records)
		res.records = append(res.records, rec)
	}
	return res
}

// Len returns the number of records.
func (r Resolution) Len() int {
	return len(r.records)
}

// Records returns the records in order.
func (r Resolution) Records() []VersionRecord {
	return slices.Clone(r.records)
}

// Identifiers returns the identifiers in order.
func (r Resolution) Identifiers() []string {
	ids := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		ids = append(ids, rec.Identifier)
	}
	return ids
}

// Get returns the record for id.
func (r Resolution) Get(id string) (VersionRecord, bool) {
	i, ok := r.index[id]
	if !ok {
		return VersionRecord{}, false
	}
	return r.records[i], true
}

// Complete returns the complete records, in order.
func (r Resolution) Complete() []VersionRecord {
	var out []VersionRecord
	for _, rec := range r.records {
		if rec.IsComplete() {
			out = append(out, rec)
		}
	}
	return out
}

// MarshalJSON encodes the resolution as a JSON object keyed by identifier,
// preserving record order.
func (r Resolution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rec := range r.records {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rec.Identifier)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", rec.Identifier, err)
		}
		val, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding record %q: %w", rec.Identifier, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
