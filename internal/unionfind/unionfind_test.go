package unionfind

import "testing"

func TestUnionFindMergesAndFinds(t *testing.T) {
	u := New[string]()
	u.Union("a", "b")
	u.Union("b", "c")

	if !u.Connected("a", "c") {
		t.Error("expected a and c to be connected transitively")
	}
	if u.Connected("a", "d") {
		t.Error("expected d to remain its own singleton set")
	}
	if u.Size(u.Find("a")) != 3 {
		t.Errorf("expected merged set size 3, got %d", u.Size(u.Find("a")))
	}
}

func TestUnionFindGroups(t *testing.T) {
	u := New[int]()
	u.Union(1, 2)
	u.Union(3, 4)
	u.Find(5)

	groups := u.Groups()
	if len(groups) != 3 {
		t.Errorf("expected 3 groups, got %d", len(groups))
	}
}
