package layout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestIndexStartsEmpty(t *testing.T) {
	idx := NewIndex(nil)
	if got := idx.Regions(); len(got) != 0 {
		t.Errorf("new index has %d regions", len(got))
	}
	if idx.Snapshot().Version != 0 {
		t.Errorf("new index version = %d", idx.Snapshot().Version)
	}
}

func TestIndexPublishReplaces(t *testing.T) {
	idx := NewIndex(nil)

	first, err := idx.Publish(testSegment("the cat sat"))
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Regions()) != 3 {
		t.Fatalf("regions = %d, want 3", len(idx.Regions()))
	}

	second, err := idx.Publish(testSegment("dog"))
	if err != nil {
		t.Fatal(err)
	}
	if second.Version <= first.Version {
		t.Errorf("version did not advance: %d -> %d", first.Version, second.Version)
	}

	regions := idx.Regions()
	if len(regions) != 1 || regions[0].Word != "dog" {
		t.Errorf("regions = %+v, want only dog", regions)
	}
	if idx.Snapshot().Text != "dog" {
		t.Errorf("Text = %q", idx.Snapshot().Text)
	}
	// Earlier snapshot is untouched
	if len(first.Regions) != 3 {
		t.Errorf("old snapshot mutated: %+v", first.Regions)
	}
}

func TestIndexPublishInvalidKeepsCurrent(t *testing.T) {
	idx := NewIndex(nil)
	if _, err := idx.Publish(testSegment("cat")); err != nil {
		t.Fatal(err)
	}
	bad := testSegment("dog")
	bad.FontSize = 0
	if _, err := idx.Publish(bad); !errors.Is(err, ErrInvalidSegment) {
		t.Fatalf("error = %v, want ErrInvalidSegment", err)
	}
	if idx.Regions()[0].Word != "cat" {
		t.Error("invalid publish replaced the current layout")
	}
}

func TestIndexClear(t *testing.T) {
	idx := NewIndex(nil)
	idx.Publish(testSegment("cat"))
	idx.Clear()
	if len(idx.Regions()) != 0 {
		t.Error("Clear left regions behind")
	}
}

func TestIndexPublishAfter(t *testing.T) {
	idx := NewIndex(nil)
	done := idx.PublishAfter(context.Background(), testSegment("cat"), 10*time.Millisecond)

	if len(idx.Regions()) != 0 {
		t.Error("published before settle delay")
	}
	if err := <-done; err != nil {
		t.Fatalf("PublishAfter error = %v", err)
	}
	if len(idx.Regions()) != 1 {
		t.Error("not published after settle delay")
	}
}

func TestIndexPublishAfterSuperseded(t *testing.T) {
	idx := NewIndex(nil)
	done := idx.PublishAfter(context.Background(), testSegment("old words"), 50*time.Millisecond)

	if _, err := idx.Publish(testSegment("new")); err != nil {
		t.Fatal(err)
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("superseded PublishAfter error = %v, want context.Canceled", err)
	}
	if got := idx.Regions(); len(got) != 1 || got[0].Word != "new" {
		t.Errorf("regions = %+v, want only new", got)
	}
}

func TestIndexPublishAfterInvalid(t *testing.T) {
	idx := NewIndex(nil)
	seg := testSegment("cat")
	seg.LineHeight = 0
	if err := <-idx.PublishAfter(context.Background(), seg, time.Millisecond); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("error = %v, want ErrInvalidSegment", err)
	}
}

// Readers must never observe a mix of two layouts.
func TestIndexNoTornReads(t *testing.T) {
	idx := NewIndex(nil)
	a := testSegment("one two three four five six seven eight")
	b := testSegment("alpha beta")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ctx.Err() == nil; i++ {
			if i%2 == 0 {
				idx.Publish(a)
			} else {
				idx.Publish(b)
			}
		}
	}()

	for ctx.Err() == nil {
		snap := idx.Snapshot()
		switch len(snap.Regions) {
		case 0, 8:
			for _, r := range snap.Regions {
				if r.Word == "alpha" || r.Word == "beta" {
					t.Fatalf("torn read: %+v", snap.Regions)
				}
			}
		case 2:
			if snap.Regions[0].Word != "alpha" || snap.Regions[1].Word != "beta" {
				t.Fatalf("torn read: %+v", snap.Regions)
			}
		default:
			t.Fatalf("unexpected region count %d", len(snap.Regions))
		}
	}
	wg.Wait()
}
