package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls and probability draws are logged at debug level so combat
// resolutions can be audited after the fact.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each
// roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Die rolls a uniform die with the given face count and returns a value
// in [1, faces].
//
// Precondition: faces >= 1.
func (r *Roller) Die(faces int) int {
	v := r.src.Intn(faces) + 1
	r.logger.Debug("die roll",
		zap.Int("faces", faces),
		zap.Int("value", v),
	)
	return v
}

// Chance performs an independent uniform draw and reports whether it
// fell below p.
//
// Precondition: 0 <= p <= 1.
// Postcondition: Always false for p == 0; always true for p == 1.
func (r *Roller) Chance(p float64) bool {
	draw := r.src.Float64()
	ok := draw < p
	r.logger.Debug("chance draw",
		zap.Float64("p", p),
		zap.Float64("draw", draw),
		zap.Bool("success", ok),
	)
	return ok
}

// Pick returns a uniform index in [0, n).
//
// Precondition: n > 0.
func (r *Roller) Pick(n int) int {
	return r.src.Intn(n)
}
