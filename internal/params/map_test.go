package params

import (
	"errors"
	"testing"

	"github.com/san-kum/pbpksim/internal/dynamo"
)

func TestMap_GetSet(t *testing.T) {
	m := New(Entry{"k10", 0.288}, Entry{"k12", 0.0238})

	v, err := m.Get("k10")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if v != 0.288 {
		t.Errorf("expected 0.288, got %f", v)
	}

	if _, err := m.Get("k99"); !errors.Is(err, dynamo.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := m.Set("k99", 1.5); err != nil {
		t.Fatalf("plain map should accept new keys: %v", err)
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 keys, got %d", m.Len())
	}
}

func TestMap_KeyOrder(t *testing.T) {
	m := New(Entry{"b", 1}, Entry{"a", 2}, Entry{"c", 3})
	m.Set("a", 5)

	keys := m.Keys()
	want := []string{"b", "a", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}

	keys[0] = "mutated"
	if m.Keys()[0] != "b" {
		t.Error("Keys() must return a copy")
	}

	sorted := FromMap(map[string]float64{"z": 1, "m": 2, "a": 3})
	if got := sorted.Keys(); got[0] != "a" || got[2] != "z" {
		t.Errorf("FromMap keys not sorted: %v", got)
	}
}

func TestMap_DeepCopyIndependent(t *testing.T) {
	orig := New(Entry{"k13", 0.0086}, Entry{"k31", 0.0141})

	for name, c := range map[string]Store{"copy": orig.Copy(), "deep": orig.DeepCopy()} {
		t.Run(name, func(t *testing.T) {
			if !Equal(orig, c) {
				t.Fatal("copy differs from original")
			}
			c.Set("k13", 42)
			c.Set("extra", 1)

			v, _ := orig.Get("k13")
			if v != 0.0086 {
				t.Errorf("original mutated through copy: k13=%f", v)
			}
			if orig.Len() != 2 {
				t.Errorf("original gained keys through copy: %d", orig.Len())
			}
		})
	}
}

func TestMap_UpdateIsMerge(t *testing.T) {
	m := New(Entry{"liver", 1.764}, Entry{"kidney", 0.326})
	other := New(Entry{"liver", 1.5}, Entry{"tumor", 0.01})

	if err := m.Update(other); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := map[string]float64{"liver": 1.5, "kidney": 0.326, "tumor": 0.01}
	got := Values(m)
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %f, got %f", k, v, got[k])
		}
	}
}

func TestMap_String(t *testing.T) {
	m := New(Entry{"k10", 0.288}, Entry{"V1", 10.3})
	if got := m.String(); got != "k10=0.288, V1=10.3" {
		t.Errorf("String() = %q", got)
	}
	if got := m.GoString(); got != "params.Map{k10=0.288, V1=10.3}" {
		t.Errorf("GoString() = %q", got)
	}
}

func TestPositive(t *testing.T) {
	m := New(Entry{"liver", 1.7}, Entry{"kidney", 0})

	if err := Positive(m, "liver"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Positive(m, "kidney"); err == nil {
		t.Error("expected error for zero volume")
	}
	if err := Positive(m, "brain"); !errors.Is(err, dynamo.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}
