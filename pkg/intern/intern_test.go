package intern

import "testing"

func TestInternReturnsSameCanonicalString(t *testing.T) {
	tab := New()
	a := tab.Intern("hello")
	b := tab.Intern("hello")
	if a != b {
		t.Errorf("Intern(%q) = %q, want equal to second call %q", "hello", a, b)
	}
	if tab.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tab.Len())
	}
}

func TestConcat(t *testing.T) {
	tab := New()
	got := tab.Concat("foo", "bar")
	if got != "foobar" {
		t.Errorf("Concat(foo, bar) = %q, want foobar", got)
	}
	if _, ok := tab.Raw("foobar"); !ok {
		t.Errorf("Concat result was not interned")
	}
}

func TestRawMissing(t *testing.T) {
	tab := New()
	if _, ok := tab.Raw("nope"); ok {
		t.Errorf("Raw(nope) unexpectedly found")
	}
}

func TestClear(t *testing.T) {
	tab := New()
	tab.Intern("a")
	tab.Intern("b")
	tab.Clear()
	if tab.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", tab.Len())
	}
}
