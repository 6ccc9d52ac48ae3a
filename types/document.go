package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Record is one row of a section, e.g. a single degree or patent.
// The "id" field is unique within its section.
type Record map[string]any

// ID returns the record id in a comparable form. JSON numbers decode to
// float64, so 1 and 1.0 map to the same id.
func (r Record) ID() (string, bool) {
	v, ok := r["id"]
	if !ok || v == nil {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, true
	case float64:
		return fmt.Sprintf("%g", id), true
	case json.Number:
		return id.String(), true
	default:
		return fmt.Sprint(id), true
	}
}

// Kind tags the shape of a section payload.
type Kind uint8

const (
	// KindList is an ordered list of records.
	KindList Kind = iota
	// KindSingleton is a single record (profile, about).
	KindSingleton
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindSingleton:
		return "singleton"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps "list" / "singleton" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "list", "":
		return KindList, nil
	case "singleton":
		return KindSingleton, nil
	default:
		return KindList, fmt.Errorf("unknown section kind %q", s)
	}
}

// Section is the payload stored under one section name.
// A singleton holds zero or one record.
type Section struct {
	Kind    Kind
	Records []Record
}

// List builds a list section.
func List(records ...Record) Section {
	if records == nil {
		records = []Record{}
	}
	return Section{Kind: KindList, Records: records}
}

// Singleton builds a singleton section.
func Singleton(r Record) Section {
	if r == nil {
		return Section{Kind: KindSingleton}
	}
	return Section{Kind: KindSingleton, Records: []Record{r}}
}

// Single returns the record of a singleton, or the first record of a list.
func (s Section) Single() (Record, bool) {
	if len(s.Records) == 0 {
		return nil, false
	}
	return s.Records[0], true
}

// Len returns the number of records.
func (s Section) Len() int { return len(s.Records) }

// DuplicateIDs lists ids that appear more than once, sorted.
func (s Section) DuplicateIDs() []string {
	seen := make(map[string]int, len(s.Records))
	for _, r := range s.Records {
		if id, ok := r.ID(); ok {
			seen[id]++
		}
	}
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

// MarshalJSON writes lists as arrays and singletons as a bare object.
func (s Section) MarshalJSON() ([]byte, error) {
	if s.Kind == KindSingleton {
		if len(s.Records) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(s.Records[0])
	}
	if s.Records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Records)
}

// UnmarshalJSON accepts an array, an object or null. The decoded kind
// reflects the wire shape; the section registry settles the final kind.
func (s *Section) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = List()
		return nil
	case b[0] == '[':
		var records []Record
		if err := json.Unmarshal(b, &records); err != nil {
			return fmt.Errorf("decode section list: %w", err)
		}
		*s = List(records...)
		return nil
	case b[0] == '{':
		var r Record
		if err := json.Unmarshal(b, &r); err != nil {
			return fmt.Errorf("decode section object: %w", err)
		}
		*s = Singleton(r)
		return nil
	default:
		return fmt.Errorf("section payload must be an array or object, got %q", b[0])
	}
}

// Canonical returns s as it reads back from its JSON form, so a section
// held in memory matches the one decoded after a reload: integers become
// float64 and nested structs become maps. The kind is preserved.
func (s Section) Canonical() (Section, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("encode section: %w", err)
	}
	var out Section
	if err := json.Unmarshal(b, &out); err != nil {
		return s, err
	}
	if s.Kind == KindSingleton {
		rec, _ := out.Single()
		return Singleton(rec), nil
	}
	return out, nil
}

// Document is the aggregate faculty record: section name to payload.
// Treat it as immutable; use With to derive a changed copy.
type Document map[string]Section

// With returns a copy of d with one section replaced.
func (d Document) With(name string, sec Section) Document {
	n := make(Document, len(d)+1)
	for k, v := range d {
		n[k] = v
	}
	n[name] = sec
	return n
}

// Section returns the named section, or an empty list when absent.
func (d Document) Section(name string) Section {
	if sec, ok := d[name]; ok {
		return sec
	}
	return List()
}

// Names returns the section names in sorted order.
func (d Document) Names() []string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
