package device

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation limits.
const (
	MaxNameLength    = 100
	MaxAddressLength = 64
)

var (
	// Gateway addresses are short tokens such as "0a12" or "1-3-7".
	addressPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

	deviceTypePattern = regexp.MustCompile(`^[0-9]+$`)
)

// ValidateDevice checks a discovered device before it is stored.
// Every failure is joined into one error wrapping ErrInvalidDevice.
func ValidateDevice(d Device) error {
	var errs []string

	if err := ValidateAddress(d.Address); err != nil {
		errs = append(errs, err.Error())
	}
	if err := ValidateDeviceType(d.DeviceTypeID); err != nil {
		errs = append(errs, err.Error())
	}
	if len(d.Name) > MaxNameLength {
		errs = append(errs, fmt.Sprintf("%v: exceeds %d characters", ErrInvalidName, MaxNameLength))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDevice, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateAddress checks a gateway network address.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if len(address) > MaxAddressLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidAddress, MaxAddressLength)
	}
	if !addressPattern.MatchString(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return nil
}

// ValidateDeviceType checks a gateway device-type id. Ids are decimal strings.
func ValidateDeviceType(id string) error {
	if !deviceTypePattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceType, id)
	}
	return nil
}
