package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func steady(step uint64, alive int) WindowStats {
	return WindowStats{WindowEndStep: step, Alive: alive, AliveMin: alive, AliveMax: alive}
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(steady(100, 0)); hasBookmark(got, BookmarkExtinction) {
		t.Error("an empty grid from the start is not an extinction")
	}
	bd.Check(steady(200, 120))
	got := bd.Check(steady(300, 0))
	if !hasBookmark(got, BookmarkExtinction) {
		t.Error("expected extinction bookmark")
	}
	if got := bd.Check(steady(400, 0)); hasBookmark(got, BookmarkExtinction) {
		t.Error("extinction should trigger once")
	}
}

func TestBookmarkDetector_Regrowth(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(steady(uint64(i+1)*100, 400))
	}

	wound := WindowStats{WindowEndStep: 400, Alive: 250, AliveMin: 200, AliveMax: 400, DamageEvents: 5}
	if got := bd.Check(wound); hasBookmark(got, BookmarkRegrowth) {
		t.Error("regrowth reported while still wounded")
	}

	healed := WindowStats{WindowEndStep: 500, Alive: 390, AliveMin: 250, AliveMax: 390}
	if got := bd.Check(healed); !hasBookmark(got, BookmarkRegrowth) {
		t.Error("expected regrowth bookmark")
	}
	if got := bd.Check(steady(600, 395)); hasBookmark(got, BookmarkRegrowth) {
		t.Error("regrowth should trigger once per wound")
	}
}

func TestBookmarkDetector_SmallDamageIsNotAWound(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 3; i++ {
		bd.Check(steady(uint64(i+1)*100, 400))
	}
	scratch := WindowStats{WindowEndStep: 400, Alive: 395, AliveMin: 380, AliveMax: 400, DamageEvents: 1}
	if got := bd.Check(scratch); hasBookmark(got, BookmarkRegrowth) {
		t.Error("a scratch should not produce a regrowth bookmark")
	}
}

func TestBookmarkDetector_Stable(t *testing.T) {
	bd := NewBookmarkDetector(10)

	count := 0
	for i := 0; i < 12; i++ {
		if hasBookmark(bd.Check(steady(uint64(i+1)*100, 500)), BookmarkStable) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("stable bookmarks = %d, want exactly 1", count)
	}
}

func TestBookmarkDetector_StableInterruptedByDamage(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 7; i++ {
		s := steady(uint64(i+1)*100, 500)
		if i == 5 {
			s.DamageEvents = 1
		}
		if hasBookmark(bd.Check(s), BookmarkStable) {
			t.Fatalf("unexpected stable bookmark at window %d", i)
		}
	}
}
