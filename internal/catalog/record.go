package catalog

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// Record is a single catalog entry kept as the JSON the operator wrote.
// The service never interprets its fields; it only forwards the bytes.
type Record json.RawMessage

// MarshalJSON returns the record bytes unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores a copy of data.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Fields decodes the record as a JSON object. It is meant for display
// in clients; records that are not objects return an error.
func (r Record) Fields() (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(r, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// String returns the record JSON.
func (r Record) String() string {
	return string(r)
}

// Snapshot is an immutable, ordered copy of the catalog at one point in time.
// A new file read always produces a new Snapshot; existing snapshots are
// never modified, so holders of an old one keep seeing the old data.
type Snapshot struct {
	// Revision increases by one every time the store publishes a snapshot.
	// Snapshots returned by Store.Load are unpublished and have revision 0.
	Revision uint64

	// LoadedAt is when the file was read.
	LoadedAt time.Time

	// Source is the file path the records came from.
	Source string

	// Err is the read or parse failure that produced an empty snapshot, if any.
	Err error

	records []Record
	encoded []byte
}

func newSnapshot(source string, revision uint64, records []Record, err error) *Snapshot {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(rec)
	}
	buf.WriteByte(']')

	return &Snapshot{
		Revision: revision,
		LoadedAt: time.Now(),
		Source:   source,
		Err:      err,
		records:  records,
		encoded:  buf.Bytes(),
	}
}

// Records returns the records in file order.
// The returned slice is a copy; the record bytes are shared and must not
// be modified.
func (s *Snapshot) Records() []Record {
	return slices.Clone(s.records)
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// JSON returns the snapshot encoded as a compact JSON array. The same bytes
// are sent to every pull request and every subscriber; callers must not
// modify them.
func (s *Snapshot) JSON() []byte {
	return s.encoded
}

// MarshalJSON encodes the snapshot as its JSON array.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return s.encoded, nil
}

// OK reports whether the snapshot came from a successful read.
func (s *Snapshot) OK() bool {
	return s.Err == nil
}

// Decode parses a catalog document into records. The document must be a JSON
// array; each element is compacted and kept verbatim. A literal null decodes
// to an empty catalog.
func Decode(data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		var buf bytes.Buffer
		if err := json.Compact(&buf, item); err != nil {
			return nil, err
		}
		records = append(records, Record(buf.Bytes()))
	}
	return records, nil
}
