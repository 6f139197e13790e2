package common

// WipeByteArray overwrites the slice contents with zeros. Used to remove
// password material from memory as soon as it is no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
