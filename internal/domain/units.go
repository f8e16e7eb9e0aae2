package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidWavelength is returned when a wavelength cannot be converted to a wavenumber.
var ErrInvalidWavelength = errors.New("invalid wavelength")

// SpectralUnit names the unit of a spectral coordinate.
type SpectralUnit string

const (
	// UnitWavenumber is cm-1, the axis of every computed spectrum.
	UnitWavenumber SpectralUnit = "cm-1"
	// UnitMicrometer is a wavelength in µm.
	UnitMicrometer SpectralUnit = "um"
	// UnitNanometer is a wavelength in nm.
	UnitNanometer SpectralUnit = "nm"
)

// ParseSpectralUnit parses a unit name. An empty string means UnitWavenumber.
func ParseSpectralUnit(s string) (SpectralUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cm-1", "cm^-1", "wavenumber":
		return UnitWavenumber, nil
	case "um", "µm", "micron", "micrometer":
		return UnitMicrometer, nil
	case "nm", "nanometer":
		return UnitNanometer, nil
	default:
		return "", fmt.Errorf("unknown spectral unit %q (use cm-1, um or nm)", s)
	}
}

// ToWavenumber converts a spectral coordinate in unit u to cm-1.
func ToWavenumber(v float64, u SpectralUnit) (float64, error) {
	switch u {
	case UnitWavenumber, "":
		return v, nil
	case UnitMicrometer, UnitNanometer:
		if v <= 0 {
			return 0, fmt.Errorf("%w: %g %s must be positive", ErrInvalidWavelength, v, u)
		}
		if u == UnitMicrometer {
			return 1e4 / v, nil
		}
		return 1e7 / v, nil
	default:
		return 0, fmt.Errorf("unknown spectral unit %q", u)
	}
}
