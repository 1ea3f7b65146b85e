package dbtypes

import "testing"

func TestStringListRoundTripsThroughDriverValue(t *testing.T) {
	list := StringList{"/api/v1/candidates/1", "/api/v1/candidates/2"}
	val, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var scanned StringList
	if err := scanned.Scan([]byte(val.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(scanned) != 2 || scanned[1] != "/api/v1/candidates/2" {
		t.Fatalf("unexpected scanned list %v", scanned)
	}
}

func TestStringListScanEdgeCases(t *testing.T) {
	var l StringList
	if err := l.Scan(nil); err != nil || len(l) != 0 {
		t.Fatalf("nil scan should produce empty list, got %v err=%v", l, err)
	}
	if err := l.Scan("null"); err != nil || l == nil {
		t.Fatalf("json null should produce empty list, got %v err=%v", l, err)
	}
	if err := l.Scan(42); err == nil {
		t.Fatal("expected unsupported type error")
	}
	if err := l.Scan("{a,b}"); err == nil {
		t.Fatal("expected decode error for non-json input")
	}

	var nilList StringList
	if v, _ := nilList.Value(); v != "[]" {
		t.Fatalf("nil list should encode as [], got %v", v)
	}
}

func TestStringListAppendUnique(t *testing.T) {
	l := StringList{}
	l = l.AppendUnique("/a")
	l = l.AppendUnique("/a")
	l = l.AppendUnique("")
	l = l.AppendUnique("/b")
	if len(l) != 2 || !l.Contains("/b") {
		t.Fatalf("unexpected list %v", l)
	}
}
