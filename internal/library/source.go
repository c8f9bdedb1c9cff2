package library

// Source identifies where a play was listened to.
type Source string

const (
	SourceXMMS   Source = "xmms"
	SourceCar    Source = "car"
	SourceStereo Source = "stereo"
	SourceCafe   Source = "cafe"
	SourceVinyl  Source = "vinyl"
)

// Sources lists every accepted source value.
func Sources() []Source {
	return []Source{SourceXMMS, SourceCar, SourceStereo, SourceCafe, SourceVinyl}
}

// Valid reports whether s is one of the accepted source values.
func (s Source) Valid() bool {
	for _, known := range Sources() {
		if s == known {
			return true
		}
	}
	return false
}
