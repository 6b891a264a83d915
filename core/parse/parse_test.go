package parse

import "testing"

type book struct {
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
}

// TestStringAs_String verifies that string targets pass content through
// without any parsing.
func TestStringAs_String(t *testing.T) {
	result, err := StringAs[string]("not json at all {")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "not json at all {" {
		t.Errorf("expected passthrough, got %q", result)
	}
}

// TestStringAs_Primitives verifies direct conversion for scalar targets.
func TestStringAs_Primitives(t *testing.T) {
	if v, err := StringAs[int]("1965"); err != nil || v != 1965 {
		t.Errorf("int: expected 1965, got %d (err %v)", v, err)
	}
	if v, err := StringAs[float64]("4.5"); err != nil || v != 4.5 {
		t.Errorf("float64: expected 4.5, got %f (err %v)", v, err)
	}
	if v, err := StringAs[bool]("true"); err != nil || !v {
		t.Errorf("bool: expected true, got %v (err %v)", v, err)
	}
}

// TestStringAs_PrimitiveFailure verifies that unparseable scalars error out
// instead of silently zeroing.
func TestStringAs_PrimitiveFailure(t *testing.T) {
	if _, err := StringAs[int]("twelve"); err == nil {
		t.Error("expected error parsing prose as int")
	}
}

// TestStringAs_Struct verifies JSON unmarshaling into a struct target.
func TestStringAs_Struct(t *testing.T) {
	result, err := StringAs[book](`{"title": "Dune", "author": "Frank Herbert", "year": 1965, "rating": 4.5}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Dune" || result.Year != 1965 {
		t.Errorf("unexpected result: %+v", result)
	}
}

// TestStringAs_RepairsAlmostJSON verifies the jsonrepair retry path for
// single-quoted, trailing-comma output.
func TestStringAs_RepairsAlmostJSON(t *testing.T) {
	result, err := StringAs[book](`{'title': 'Dune', 'year': 1965,}`)
	if err != nil {
		t.Fatalf("expected repair to succeed, got %v", err)
	}
	if result.Title != "Dune" || result.Year != 1965 {
		t.Errorf("unexpected result: %+v", result)
	}
}

// TestStringAs_Slice verifies complex non-struct targets.
func TestStringAs_Slice(t *testing.T) {
	result, err := StringAs[[]string](`["a", "b", "c"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 3 || result[2] != "c" {
		t.Errorf("unexpected result: %v", result)
	}
}
