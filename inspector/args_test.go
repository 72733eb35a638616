package inspector

import (
	"sort"
	"testing"

	cwl "github.com/lijiang2014/cwl.inspect"
)

func TestCompareKey(t *testing.T) {
	// ints sort before strings
	if compare(1, "a") != -1 || compare("a", 1) != 1 {
		t.Fatal("ints must sort before strings")
	}
	if compare(1, 2) != -1 || compare(2, 1) != 1 || compare(2, 2) != 0 {
		t.Fatal("int ordering")
	}
	if compare("a", "b") != -1 || compare("b", "a") != 1 || compare("a", "a") != 0 {
		t.Fatal("string ordering")
	}
	// shorter keys come first
	if compareKey(sortKey{0}, sortKey{0, 1}) != -1 {
		t.Fatal("key length")
	}
}

// equal positions keep the declaration order of arguments and the id
// order of inputs
func TestSortStability(t *testing.T) {
	args := []*Binding{
		{sortKey: sortKey{0, 1}, name: ""},
		{sortKey: sortKey{0, "b"}, name: "b"},
		{sortKey: sortKey{0, 0}, name: ""},
		{sortKey: sortKey{0, "a"}, name: "a"},
	}
	sort.Stable(bySortKey(args))
	got := []interface{}{args[0].sortKey[1], args[1].sortKey[1], args[2].sortKey[1], args[3].sortKey[1]}
	want := []interface{}{0, 1, "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v", got)
		}
	}
}

func TestFormatArgs(t *testing.T) {
	p := &Process{}

	clb := &cwl.CommandLineBinding{Prefix: "-f", Separate: true}
	if got := p.formatArgs(clb, false, "x"); len(got) != 2 || got[0] != "-f" || got[1] != "x" {
		t.Fatalf("%v", got)
	}

	clb = &cwl.CommandLineBinding{Prefix: "-f", Separate: false}
	if got := p.formatArgs(clb, false, "x"); len(got) != 1 || got[0] != "-fx" {
		t.Fatalf("%v", got)
	}

	clb = &cwl.CommandLineBinding{ItemSeparator: ",", Separate: true}
	if got := p.formatArgs(clb, false, "a", "b"); len(got) != 1 || got[0] != "a,b" {
		t.Fatalf("%v", got)
	}
}

// quoting safety: a quoted token never breaks out of the double quotes
func TestQuoting(t *testing.T) {
	if got := dquote(`say "hi"`); got != `"say \"hi\""` {
		t.Fatalf("%s", got)
	}
	if got := dquote(`back\slash`); got != `"back\\slash"` {
		t.Fatalf("%s", got)
	}
	if got := squote(`don't`); got != `'don'\''t'` {
		t.Fatalf("%s", got)
	}
}

func TestValueToStrings(t *testing.T) {
	if got := valueToStrings("x", true); got[0] != `"x"` {
		t.Fatalf("%v", got)
	}
	if got := valueToStrings("x", false); got[0] != "x" {
		t.Fatalf("%v", got)
	}
	if got := valueToStrings(int32(3), true); got[0] != "3" {
		t.Fatalf("%v", got)
	}
	if got := valueToStrings(Uninstantiated("input"), true); len(got) != 1 || got[0] != "" {
		t.Fatalf("%v", got)
	}
	f := cwl.File{Path: "/in/a.txt"}
	if got := valueToStrings(f, true); got[0] != `"/in/a.txt"` {
		t.Fatalf("%v", got)
	}
}
