package aggregate

import (
	"reflect"
	"testing"

	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/store"
)

func newTestAggregator(t *testing.T) (*Aggregator, *store.Store) {
	t.Helper()

	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return New(st, logging.Nop()), st
}

func TestBuild_MergesUsersAndCurrentStore(t *testing.T) {
	agg, st := newTestAggregator(t)

	if err := st.SaveUserLabels("alice", map[string]string{"img1.jpg": "Cat"}); err != nil {
		t.Fatalf("failed to save alice: %v", err)
	}
	if err := st.SaveUserLabels("bob", map[string]string{"img1.jpg": "Dog", "img2.jpg": "Cat"}); err != nil {
		t.Fatalf("failed to save bob: %v", err)
	}

	// Bob's session has an unsaved edit that must win over his file.
	current := map[string]string{"img1.jpg": "Cat", "img3.jpg": "Bird"}
	view, err := agg.Build([]string{"alice", "bob"}, "bob", current, false)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	want := View{
		"img1.jpg": {"alice": "Cat", "bob": "Cat"},
		"img2.jpg": {"bob": "Cat"},
		"img3.jpg": {"bob": "Bird"},
	}
	if !reflect.DeepEqual(view, want) {
		t.Errorf("view = %v, want %v", view, want)
	}
}

func TestBuild_RedundantModeHidesOtherUsers(t *testing.T) {
	agg, st := newTestAggregator(t)

	if err := st.SaveUserLabels("alice", map[string]string{"img1.jpg": "Cat"}); err != nil {
		t.Fatalf("failed to save alice: %v", err)
	}

	view, err := agg.Build([]string{"alice", "bob"}, "bob", map[string]string{"img2.jpg": "Dog"}, true)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(view) != 0 {
		t.Errorf("redundant mode should yield an empty view, got %v", view)
	}
}

func TestBuild_AlwaysRereadsDisk(t *testing.T) {
	agg, st := newTestAggregator(t)

	if err := st.SaveUserLabels("alice", map[string]string{"img1.jpg": "Cat"}); err != nil {
		t.Fatalf("failed to save alice: %v", err)
	}
	view, err := agg.Build([]string{"alice"}, "bob", nil, false)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if view["img1.jpg"]["alice"] != "Cat" {
		t.Fatalf("first build missing alice's label: %v", view)
	}

	// Alice saves again from another session; the next build must see it.
	if err := st.SaveUserLabels("alice", map[string]string{"img1.jpg": "Dog"}); err != nil {
		t.Fatalf("failed to update alice: %v", err)
	}
	view, err = agg.Build([]string{"alice"}, "bob", nil, false)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if view["img1.jpg"]["alice"] != "Dog" {
		t.Errorf("second build returned stale label: %v", view)
	}
}

func TestClassify_SingleUserIsAgreed(t *testing.T) {
	view := View{"img1.jpg": {"alice": "Cat"}}

	c := Classify([]string{"img1.jpg"}, view)
	if !reflect.DeepEqual(c.Agreed, []string{"img1.jpg"}) {
		t.Errorf("single-user label should be agreed, got %+v", c)
	}
	if len(c.Disagreed) != 0 || len(c.Unlabeled) != 0 {
		t.Errorf("unexpected partitions: %+v", c)
	}
}

func TestClassify_Partitions(t *testing.T) {
	view := View{
		"agreed.jpg":   {"alice": "Cat", "bob": "Cat"},
		"disputed.jpg": {"alice": "Cat", "bob": "Dog"},
		"solo.jpg":     {"alice": "Bird"},
	}
	images := []string{"agreed.jpg", "disputed.jpg", "solo.jpg", "blank.jpg"}

	c := Classify(images, view)

	if want := []string{"agreed.jpg", "solo.jpg"}; !reflect.DeepEqual(c.Agreed, want) {
		t.Errorf("agreed = %v, want %v", c.Agreed, want)
	}
	if want := []string{"disputed.jpg"}; !reflect.DeepEqual(c.Disagreed, want) {
		t.Errorf("disagreed = %v, want %v", c.Disagreed, want)
	}
	if want := []string{"blank.jpg"}; !reflect.DeepEqual(c.Unlabeled, want) {
		t.Errorf("unlabeled = %v, want %v", c.Unlabeled, want)
	}
}

func TestClassify_PreservesInputOrder(t *testing.T) {
	view := View{
		"b.jpg": {"alice": "Cat"},
		"a.jpg": {"alice": "Cat"},
	}

	c := Classify([]string{"b.jpg", "a.jpg"}, view)
	if want := []string{"b.jpg", "a.jpg"}; !reflect.DeepEqual(c.Agreed, want) {
		t.Errorf("agreed = %v, want %v (input order)", c.Agreed, want)
	}
}

func TestClassifyFresh_SeesLatestSaves(t *testing.T) {
	agg, st := newTestAggregator(t)

	images := []string{"img1.jpg", "img2.jpg"}
	if err := st.SaveUserLabels("alice", map[string]string{"img1.jpg": "Cat"}); err != nil {
		t.Fatalf("failed to save alice: %v", err)
	}

	c, view, err := agg.ClassifyFresh(images, []string{"alice", "bob"}, "bob",
		map[string]string{"img1.jpg": "Dog"}, false)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if want := []string{"img1.jpg"}; !reflect.DeepEqual(c.Disagreed, want) {
		t.Errorf("disagreed = %v, want %v", c.Disagreed, want)
	}
	if want := []string{"img2.jpg"}; !reflect.DeepEqual(c.Unlabeled, want) {
		t.Errorf("unlabeled = %v, want %v", c.Unlabeled, want)
	}
	if got := view.Distinct("img1.jpg"); len(got) != 2 {
		t.Errorf("distinct labels = %v, want 2 entries", got)
	}
}
