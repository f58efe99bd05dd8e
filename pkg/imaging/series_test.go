package imaging

import "testing"

func newSeries(t *testing.T, n int) (*Series, []*Image) {
	t.Helper()
	d := newTestDevice()
	images := make([]*Image, n)
	for i := range images {
		img, err := New(d, Params{Height: 1, Width: 1, SeriesIndex: 10})
		if err != nil {
			t.Fatal(err)
		}
		images[i] = img
	}
	return NewSeries(images...), images
}

func TestSeriesLinksAndNumbering(t *testing.T) {
	s, images := newSeries(t, 3)

	for i, img := range images {
		if img.SeriesIndex() != 10+i {
			t.Errorf("Image %d: expected index %d, got %d", i, 10+i, img.SeriesIndex())
		}
		if img.Series() != s {
			t.Errorf("Image %d: not linked to the series", i)
		}
	}
	if images[0].Prev() != nil || images[2].Next() != nil {
		t.Error("Ends of the series must have no outer neighbour")
	}
	if images[1].Prev() != images[0] || images[1].Next() != images[2] {
		t.Error("Middle image has wrong neighbours")
	}
	if s.Prev(3) != nil || s.Next(-1) != nil {
		t.Error("Out-of-range positions must have no neighbours")
	}
}

func TestSeriesReplaceNeedsRelink(t *testing.T) {
	s, images := newSeries(t, 3)
	repl, err := New(images[0].Device(), Params{Height: 1, Width: 1, SeriesIndex: 99})
	if err != nil {
		t.Fatal(err)
	}

	s.Replace(1, repl)
	if images[1].Next() != nil {
		t.Error("A replaced image must drop out of the series")
	}
	if repl.Prev() != nil {
		t.Error("Replacement is not linked before RebuildLinks")
	}

	s.RebuildLinks()
	if repl.Prev() != images[0] || repl.Next() != images[2] {
		t.Error("Replacement not linked after RebuildLinks")
	}
	if repl.SeriesIndex() != 11 || images[2].SeriesIndex() != 12 {
		t.Errorf("Expected indices 11 and 12, got %d and %d", repl.SeriesIndex(), images[2].SeriesIndex())
	}
}

func TestSeriesTraversal(t *testing.T) {
	s, images := newSeries(t, 4)

	if First(images[3]) != images[0] {
		t.Error("First did not walk back to the start")
	}
	if got := ListFrom(images[1]); len(got) != 3 || got[2] != images[3] {
		t.Errorf("ListFrom returned %d images", len(got))
	}
	if got := ListN(images[0], 2); len(got) != 2 || got[1] != images[1] {
		t.Errorf("ListN returned %d images", len(got))
	}
	if got := ListN(images[2], 10); len(got) != 2 {
		t.Errorf("ListN past the end returned %d images", len(got))
	}
	if got := s.Slice(1, 3); len(got) != 2 || got[0] != images[1] {
		t.Error("Slice returned the wrong images")
	}

	s.Append(images[0])
	if s.Len() != 5 {
		t.Errorf("Expected 5 images, got %d", s.Len())
	}
}
