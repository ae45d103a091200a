package grid

// DefaultParams returns default grid detection parameters.
// These are tuned for pixel-art sheets with frames between 8 and 128 px.
func DefaultParams() Params {
	return Params{
		MinPeakDistance: 5,
		MinPeriod:       8,
		MaxPeriod:       128,
		PeakSigma:       1.0, // Peaks must exceed mean + 1 stddev
	}
}

// WithPeriodRange returns a copy of params with a custom frame size search range.
func (p Params) WithPeriodRange(minPeriod, maxPeriod int) Params {
	p.MinPeriod = minPeriod
	p.MaxPeriod = maxPeriod
	return p
}

// WithPeakDistance returns a copy of params with a custom minimum peak spacing.
func (p Params) WithPeakDistance(d int) Params {
	p.MinPeakDistance = d
	return p
}

// normalized fills zero fields with defaults.
func (p Params) normalized() Params {
	def := DefaultParams()
	if p.MinPeakDistance <= 0 {
		p.MinPeakDistance = def.MinPeakDistance
	}
	if p.MinPeriod <= 0 {
		p.MinPeriod = def.MinPeriod
	}
	if p.MaxPeriod <= 0 {
		p.MaxPeriod = def.MaxPeriod
	}
	if p.PeakSigma <= 0 {
		p.PeakSigma = def.PeakSigma
	}
	return p
}

// WithPeakSigma returns a copy of params with a custom peak threshold.
func (p Params) WithPeakSigma(sigma float64) Params {
	p.PeakSigma = sigma
	return p
}
