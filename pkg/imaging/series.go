package imaging

// Series is an ordered, owned collection of images. Neighbour relations are
// expressed as positions in the collection, so images never own each other.
type Series struct {
	images []*Image
}

// NewSeries builds a series over a fresh copy of images and links them.
func NewSeries(images ...*Image) *Series {
	s := &Series{images: make([]*Image, 0, len(images))}
	s.images = append(s.images, images...)
	s.RebuildLinks()
	return s
}

// Len returns the number of images.
func (s *Series) Len() int { return len(s.images) }

// At returns the image at position i.
func (s *Series) At(i int) *Image { return s.images[i] }

// Images returns a copy of the ordered image list.
func (s *Series) Images() []*Image {
	out := make([]*Image, len(s.images))
	copy(out, s.images)
	return out
}

// Append adds images at the end without relinking. Call RebuildLinks once
// all insertions are done.
func (s *Series) Append(images ...*Image) {
	s.images = append(s.images, images...)
}

// Replace swaps the image at position i without relinking.
func (s *Series) Replace(i int, img *Image) {
	s.images[i] = img
}

// RebuildLinks binds every image to its position and renumbers the series so
// that each index is one more than its predecessor's. The first image keeps
// its own index. This is a bulk pass over the whole series and must not run
// concurrently with mutations of its images.
func (s *Series) RebuildLinks() {
	for i, img := range s.images {
		img.series = s
		img.position = i
		if i > 0 {
			img.seriesIndex = s.images[i-1].seriesIndex + 1
		}
	}
}

// Prev returns the image before position i, or nil for the first one.
func (s *Series) Prev(i int) *Image {
	if i <= 0 || i >= len(s.images) {
		return nil
	}
	return s.images[i-1]
}

// Next returns the image after position i, or nil for the last one.
func (s *Series) Next(i int) *Image {
	if i < 0 || i+1 >= len(s.images) {
		return nil
	}
	return s.images[i+1]
}

// Slice returns the images in positions [start, end).
func (s *Series) Slice(start, end int) []*Image {
	out := make([]*Image, end-start)
	copy(out, s.images[start:end])
	return out
}

// SeriesIndex returns the sequential number of the image.
func (img *Image) SeriesIndex() int { return img.seriesIndex }

// SetSeriesIndex overrides the sequential number. RebuildLinks renumbers every
// image but the first.
func (img *Image) SetSeriesIndex(i int) { img.seriesIndex = i }

// Series returns the series the image was last linked into, or nil.
func (img *Image) Series() *Series { return img.series }

func (img *Image) linked() bool {
	s := img.series
	return s != nil && img.position < len(s.images) && s.images[img.position] == img
}

// Prev returns the preceding image in the series, or nil.
func (img *Image) Prev() *Image {
	if !img.linked() {
		return nil
	}
	return img.series.Prev(img.position)
}

// Next returns the following image in the series, or nil.
func (img *Image) Next() *Image {
	if !img.linked() {
		return nil
	}
	return img.series.Next(img.position)
}

// First walks back to the first image of img's series.
func First(img *Image) *Image {
	for p := img.Prev(); p != nil; p = p.Prev() {
		img = p
	}
	return img
}

// ListFrom returns img and every image that follows it in the series.
func ListFrom(img *Image) []*Image {
	list := []*Image{img}
	for n := img.Next(); n != nil; n = n.Next() {
		list = append(list, n)
	}
	return list
}

// ListN returns img and up to n-1 images that follow it.
func ListN(img *Image, n int) []*Image {
	list := make([]*Image, 0, n)
	for cur := img; cur != nil && len(list) < n; cur = cur.Next() {
		list = append(list, cur)
	}
	return list
}
