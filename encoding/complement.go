package encoding

// Complement returns a new slice holding the bitwise complement of every code
// unit in units. CSF stores text this way; applying Complement twice yields the
// original units.
func Complement(units []uint16) []uint16 {
	out := make([]uint16, len(units))
	for i, u := range units {
		out[i] = ^u
	}

	return out
}
