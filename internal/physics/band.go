package physics

// Band is the coarse spectral region of a wavelength, used to color the beam.
type Band string

const (
	BandUltraviolet Band = "uv"
	BandBlue        Band = "blue"
	BandGreen       Band = "green"
	BandYellow      Band = "yellow"
	BandRed         Band = "red"
	BandInfrared    Band = "infrared"
)

// BandOf classifies a wavelength in nanometres.
func BandOf(wavelengthNm float64) Band {
	switch {
	case wavelengthNm < 380:
		return BandUltraviolet
	case wavelengthNm < 450:
		return BandBlue
	case wavelengthNm < 550:
		return BandGreen
	case wavelengthNm < 590:
		return BandYellow
	case wavelengthNm < 700:
		return BandRed
	default:
		return BandInfrared
	}
}
