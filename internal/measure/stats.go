package measure

import "math"

// Statistics summarizes repeated samples taken at one voltage. It is a value
// object: Raw is owned by the Statistics and never modified after creation.
type Statistics struct {
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	StandardError float64   `json:"standard_error"`
	Raw           []float64 `json:"raw_measurements"`
	Count         int       `json:"count"`
}

// Summarize computes the mean, the Bessel-corrected sample standard deviation
// and the standard error of samples. A single sample has zero spread by
// convention and an empty input yields the zero Statistics.
func Summarize(samples []float64) Statistics {
	n := len(samples)
	raw := make([]float64, n)
	copy(raw, samples)
	if n == 0 {
		return Statistics{Raw: raw}
	}

	var sum float64
	for _, v := range raw {
		sum += v
	}
	mean := sum / float64(n)

	var stdDev float64
	if n > 1 {
		var ss float64
		for _, v := range raw {
			d := v - mean
			ss += d * d
		}
		stdDev = math.Sqrt(ss / float64(n-1))
	}

	return Statistics{
		Mean:          mean,
		StdDev:        stdDev,
		StandardError: stdDev / math.Sqrt(float64(n)),
		Raw:           raw,
		Count:         n,
	}
}
