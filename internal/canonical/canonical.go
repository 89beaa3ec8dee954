// Package canonical picks the record that survives when several albums
// describe the same release.
package canonical

import "github.com/albumduel/albumduel-server/internal/domain"

// Choose returns whichever of x and y should be kept as the canonical
// record. The rules form a total order, so the result does not depend on
// argument order and folding over a group is associative:
//
//  1. an album with a streaming id beats one without
//  2. an album with a cover beats one without
//  3. the later release year wins (unknown counts as 0)
//  4. the larger internal id wins
func Choose(x, y *domain.Album) *domain.Album {
	switch {
	case x == nil:
		return y
	case y == nil:
		return x
	}
	if Less(x, y) {
		return y
	}
	return x
}

// Less reports whether x ranks strictly below y in canonical preference.
func Less(x, y *domain.Album) bool {
	if xs, ys := x.HasStreamingID(), y.HasStreamingID(); xs != ys {
		return ys
	}
	if xc, yc := x.HasCover(), y.HasCover(); xc != yc {
		return yc
	}
	if xy, yy := x.YearOrZero(), y.YearOrZero(); xy != yy {
		return xy < yy
	}
	return x.ID < y.ID
}

// Fold applies Choose across albums. It returns nil for an empty slice.
func Fold(albums []*domain.Album) *domain.Album {
	var best *domain.Album
	for _, a := range albums {
		best = Choose(best, a)
	}
	return best
}

// Split returns the canonical album of a group and the remaining
// duplicates in their original order.
func Split(albums []*domain.Album) (*domain.Album, []*domain.Album) {
	keep := Fold(albums)
	if keep == nil {
		return nil, nil
	}
	dups := make([]*domain.Album, 0, len(albums)-1)
	for _, a := range albums {
		if a != keep {
			dups = append(dups, a)
		}
	}
	return keep, dups
}
