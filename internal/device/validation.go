package device

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field limits shared by the v1 and v2 device forms.
const (
	MaxDescriptionLength = 100
	MaxLatitude          = 90.0
	MaxLongitude         = 180.0
)

var (
	nameRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	imeiRegex     = regexp.MustCompile(`^\d{15}$`)
	imsiRegex     = regexp.MustCompile(`^\d{1,15}$`)
	pskRegex      = regexp.MustCompile(`^[a-zA-Z0-9]{8,16}$`)
	authCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9]{1,16}$`)
)

// ValidateDeviceName checks a device name: 1 to 64 letters, digits, '-' or '_'.
func ValidateDeviceName(name string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: must be 1-64 letters, digits, '-' or '_'", ErrInvalidName)
	}
	return nil
}

// ValidateIMEI checks for exactly 15 digits.
func ValidateIMEI(imei string) error {
	if !imeiRegex.MatchString(imei) {
		return fmt.Errorf("%w: must be exactly 15 digits", ErrInvalidIMEI)
	}
	return nil
}

// ValidateIMSI checks for 1 to 15 digits.
func ValidateIMSI(imsi string) error {
	if !imsiRegex.MatchString(imsi) {
		return fmt.Errorf("%w: must be 1-15 digits", ErrInvalidIMSI)
	}
	return nil
}

// ValidatePSK checks for 8 to 16 letters or digits.
func ValidatePSK(psk string) error {
	if !pskRegex.MatchString(psk) {
		return fmt.Errorf("%w: must be 8-16 letters or digits", ErrInvalidPSK)
	}
	return nil
}

// ValidateAuthCode checks for 1 to 16 letters or digits.
func ValidateAuthCode(code string) error {
	if !authCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: must be 1-16 letters or digits", ErrInvalidAuthCode)
	}
	return nil
}

// ValidateDescription limits a description to MaxDescriptionLength characters.
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return fmt.Errorf("%w: at most %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}
	return nil
}

// ValidateLatitude accepts nil or a value within ±90.
func ValidateLatitude(lat *float64) error {
	if lat != nil && (*lat < -MaxLatitude || *lat > MaxLatitude) {
		return fmt.Errorf("%w: %g is outside ±90", ErrInvalidLatitude, *lat)
	}
	return nil
}

// ValidateLongitude accepts nil or a value within ±180.
func ValidateLongitude(lon *float64) error {
	if lon != nil && (*lon < -MaxLongitude || *lon > MaxLongitude) {
		return fmt.Errorf("%w: %g is outside ±180", ErrInvalidLongitude, *lon)
	}
	return nil
}

// ValidateCoordinateString checks a textual coordinate as sent by the v2 API.
// Empty means absent.
func ValidateCoordinateString(s string, latitude bool) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	sentinel := ErrInvalidLongitude
	if latitude {
		sentinel = ErrInvalidLatitude
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", sentinel, s)
	}
	if latitude {
		return ValidateLatitude(&v)
	}
	return ValidateLongitude(&v)
}

// ValidateLocation checks both coordinates of loc. Nil is allowed.
func ValidateLocation(loc *Location) error {
	if loc == nil {
		return nil
	}
	return errors.Join(ValidateLatitude(loc.Lat), ValidateLongitude(loc.Lon))
}

// Check runs the named field checks and joins the failures, in order.
// Returns nil when every check passes.
//
//	err := device.Check(
//	    device.ValidateDeviceName(req.Name),
//	    device.ValidateDescription(req.Desc),
//	)
func Check(results ...error) error {
	return errors.Join(results...)
}
