package playback

// Direction is the step taken through a playlist.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Resolve returns the position to play after current in a playlist of size
// entries, or false when nothing should play. A current outside [0, size)
// means nothing is playing: stepping forward starts at the first entry and
// stepping backward at the last. pick(n) must return a uniform integer in
// [0, n); it is only called when shuffle applies.
func Resolve(size, current int, repeat RepeatMode, shuffle bool, dir Direction, pick func(int) int) (int, bool) {
	if size <= 1 {
		return 0, false
	}
	playing := current >= 0 && current < size
	if repeat == RepeatOne && playing {
		return current, true
	}
	if !shuffle {
		if !playing {
			if dir == Backward {
				return size - 1, true
			}
			return 0, true
		}
		next := current + int(dir)
		if next >= 0 && next < size {
			return next, true
		}
		if repeat == RepeatAll {
			return ((next % size) + size) % size, true
		}
		return 0, false
	}

	// Uniform over every position except current.
	if !playing {
		return pick(size), true
	}
	r := pick(size - 1)
	if r >= current {
		r++
	}
	return r, true
}
