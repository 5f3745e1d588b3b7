package main

import (
	"reflect"
	"testing"
)

func TestParseGrid(t *testing.T) {
	names, ranges, err := parseGrid([]string{"k10=0.1, 0.2", "k14=1"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"k10", "k14"}) {
		t.Errorf("names = %v", names)
	}
	if !reflect.DeepEqual(ranges, [][]float64{{0.1, 0.2}, {1}}) {
		t.Errorf("ranges = %v", ranges)
	}

	for _, bad := range []string{"k10", "=1", "k10=a", "k10=1,,2"} {
		if _, _, err := parseGrid([]string{bad}); err == nil {
			t.Errorf("parseGrid(%q) accepted", bad)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}
