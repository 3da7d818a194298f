package rng

// Script is a deterministic Source that replays queued values. When a queue
// runs dry it falls back to Fallback, or to zero values when Fallback is nil.
type Script struct {
	Floats   []float64
	Ints     []int
	Normals  []float64
	Fallback Source
}

func (s *Script) Float64() float64 {
	if len(s.Floats) > 0 {
		v := s.Floats[0]
		s.Floats = s.Floats[1:]
		return v
	}
	if s.Fallback != nil {
		return s.Fallback.Float64()
	}
	return 0
}

// IntN returns the next queued int reduced modulo n.
func (s *Script) IntN(n int) int {
	if len(s.Ints) > 0 {
		v := s.Ints[0]
		s.Ints = s.Ints[1:]
		return ((v % n) + n) % n
	}
	if s.Fallback != nil {
		return s.Fallback.IntN(n)
	}
	return 0
}

func (s *Script) NormFloat64() float64 {
	if len(s.Normals) > 0 {
		v := s.Normals[0]
		s.Normals = s.Normals[1:]
		return v
	}
	if s.Fallback != nil {
		return s.Fallback.NormFloat64()
	}
	return 0
}
