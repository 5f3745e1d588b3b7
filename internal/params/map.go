package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/pbpksim/internal/dynamo"
)

// Entry is one named value used to build a Map in a fixed order.
type Entry struct {
	Key   string
	Value float64
}

// Map is the plain in-memory Store. Writes to unknown keys append them.
type Map struct {
	keys   []string
	values map[string]float64
}

func New(entries ...Entry) *Map {
	m := &Map{
		keys:   make([]string, 0, len(entries)),
		values: make(map[string]float64, len(entries)),
	}
	for _, e := range entries {
		m.put(e.Key, e.Value)
	}
	return m
}

// FromMap builds a Map whose key order is sorted lexically.
func FromMap(values map[string]float64) *Map {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := New()
	for _, k := range keys {
		m.put(k, values[k])
	}
	return m
}

func (m *Map) put(key string, value float64) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *Map) Get(key string) (float64, error) {
	v, ok := m.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrKeyNotFound, key)
	}
	return v, nil
}

func (m *Map) Set(key string, value float64) error {
	m.put(key, value)
	return nil
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *Map) Len() int { return len(m.keys) }

func (m *Map) String() string {
	var sb strings.Builder
	for i, k := range m.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(m.values[k], 'g', -1, 64))
	}
	return sb.String()
}

func (m *Map) GoString() string {
	return fmt.Sprintf("params.Map{%s}", m.String())
}

func (m *Map) Copy() Store { return m.clone() }

// DeepCopy is identical to Copy: every value is a primitive.
func (m *Map) DeepCopy() Store { return m.clone() }

func (m *Map) clone() *Map {
	c := &Map{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]float64, len(m.values)),
	}
	copy(c.keys, m.keys)
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}

func (m *Map) Update(other Store) error {
	return Merge(m, other)
}
