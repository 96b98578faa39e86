package corpus

// Index holds the ordered structure of the corpus: volumes in canonical
// order, books per volume, chapters per book. Order follows first
// appearance in the corpus file, which is already canonical, so no
// sorting is applied.
type Index struct {
	Volumes        []string
	BooksByVolume  map[string][]string
	ChaptersByBook map[string][]int
	VerseCount     int
}

// BuildIndex walks the verses once and collects volumes, books and
// chapters in order of first appearance.
func BuildIndex(verses []Verse) *Index {
	idx := &Index{
		BooksByVolume:  make(map[string][]string),
		ChaptersByBook: make(map[string][]int),
		VerseCount:     len(verses),
	}

	seenVolumes := make(map[string]bool)
	seenBooks := make(map[string]bool)
	seenChapters := make(map[string]map[int]bool)

	for _, v := range verses {
		if !seenVolumes[v.VolumeTitle] {
			seenVolumes[v.VolumeTitle] = true
			idx.Volumes = append(idx.Volumes, v.VolumeTitle)
		}

		bookKey := v.VolumeTitle + "\x00" + v.BookTitle
		if !seenBooks[bookKey] {
			seenBooks[bookKey] = true
			idx.BooksByVolume[v.VolumeTitle] = append(idx.BooksByVolume[v.VolumeTitle], v.BookTitle)
		}

		if seenChapters[v.BookTitle] == nil {
			seenChapters[v.BookTitle] = make(map[int]bool)
		}
		if !seenChapters[v.BookTitle][v.ChapterNumber] {
			seenChapters[v.BookTitle][v.ChapterNumber] = true
			idx.ChaptersByBook[v.BookTitle] = append(idx.ChaptersByBook[v.BookTitle], v.ChapterNumber)
		}
	}

	return idx
}

// BookCount returns the total number of distinct books across all volumes.
func (idx *Index) BookCount() int {
	n := 0
	for _, books := range idx.BooksByVolume {
		n += len(books)
	}
	return n
}
