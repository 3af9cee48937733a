package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrSlotNotFound) {
//	    // nothing persisted yet
//	}
var (
	// ErrSlotNotFound is returned by a Store when the slot has never been written.
	ErrSlotNotFound = errors.New("device: slot not found")

	// ErrDeviceNotFound is returned when an id is not in the cache.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDevice is returned when a record has no id.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidName is returned when a device name breaks the naming rule.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidIMEI is returned when an IMEI is not exactly 15 digits.
	ErrInvalidIMEI = errors.New("device: invalid imei")

	// ErrInvalidIMSI is returned when an IMSI is not 1 to 15 digits.
	ErrInvalidIMSI = errors.New("device: invalid imsi")

	// ErrInvalidPSK is returned when a pre-shared key is not 8 to 16 alphanumerics.
	ErrInvalidPSK = errors.New("device: invalid psk")

	// ErrInvalidAuthCode is returned when an auth code is not 1 to 16 alphanumerics.
	ErrInvalidAuthCode = errors.New("device: invalid auth code")

	// ErrInvalidDescription is returned when a description is too long.
	ErrInvalidDescription = errors.New("device: invalid description")

	// ErrInvalidLatitude is returned for latitudes outside ±90.
	ErrInvalidLatitude = errors.New("device: invalid latitude")

	// ErrInvalidLongitude is returned for longitudes outside ±180.
	ErrInvalidLongitude = errors.New("device: invalid longitude")
)
