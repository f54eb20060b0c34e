package grid

import "testing"

func TestNewSeededShape(t *testing.T) {
	cases := []struct{ h, w, c int }{
		{46, 46, 16},
		{8, 8, 4},
		{1, 1, 5},
		{3, 7, 12},
	}
	for _, tc := range cases {
		s, err := NewSeeded(tc.h, tc.w, tc.c)
		if err != nil {
			t.Fatalf("NewSeeded(%d,%d,%d): %v", tc.h, tc.w, tc.c, err)
		}
		if len(s.Cells) != tc.h*tc.w*tc.c {
			t.Errorf("len(Cells) = %d, want %d", len(s.Cells), tc.h*tc.w*tc.c)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	}
}

func TestNewSeededSingleCenterCell(t *testing.T) {
	h, w, c := 7, 10, 8
	s, err := NewSeeded(h, w, c)
	if err != nil {
		t.Fatal(err)
	}
	cx, cy := w/2, h/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell := s.Cell(x, y)
			for ch, v := range cell {
				want := float32(0)
				if x == cx && y == cy && ch >= ChannelAlpha {
					want = 1
				}
				if v != want {
					t.Fatalf("cell (%d,%d) channel %d = %v, want %v", x, y, ch, v, want)
				}
			}
		}
	}
	if n := s.CountAlive(0.1); n != 1 {
		t.Errorf("CountAlive = %d, want 1", n)
	}
}

func TestNewRejectsBadShape(t *testing.T) {
	if _, err := New(0, 4, 4); err == nil {
		t.Error("expected error for zero height")
	}
	if _, err := NewSeeded(4, -1, 4); err == nil {
		t.Error("expected error for negative width")
	}
	if _, err := FromCells(2, 2, 4, make([]float32, 15)); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s, _ := NewSeeded(4, 4, 4)
	c := s.Clone()
	if !c.Equal(s) {
		t.Fatal("clone differs from original")
	}
	c.Cells[0] = 0.5
	if s.Cells[0] != 0 {
		t.Error("writing the clone changed the original")
	}
	if c.Equal(s) {
		t.Error("Equal should notice the changed cell")
	}
}

func TestIndexLayout(t *testing.T) {
	s, _ := New(3, 5, 4)
	// channel is fastest, then column, then row
	if got := s.Index(2, 1); got != (1*5+2)*4 {
		t.Errorf("Index(2,1) = %d, want %d", got, (1*5+2)*4)
	}
	s.Cells[s.Index(4, 2)+ChannelAlpha] = 0.7
	if a := s.Alpha(4, 2); a != 0.7 {
		t.Errorf("Alpha(4,2) = %v, want 0.7", a)
	}
}
