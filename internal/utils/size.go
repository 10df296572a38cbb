package utils

import (
	"strconv"
	"strings"
)

const byteUnitStep = 1024

var byteUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte count into a human-readable lower-case unit string.
// Values below ten units keep one decimal place.
func FormatFileSize(bytes int64) string {
	if bytes < byteUnitStep {
		if bytes < 0 {
			bytes = 0
		}
		return strconv.FormatInt(bytes, 10) + byteUnits[0]
	}
	value := float64(bytes)
	unitIndex := 0
	for value >= byteUnitStep && unitIndex < len(byteUnits)-1 {
		value /= byteUnitStep
		unitIndex++
	}
	precision := 0
	if value < 10 {
		precision = 1
	}
	formatted := strings.TrimSuffix(strconv.FormatFloat(value, 'f', precision, 64), ".0")
	return formatted + byteUnits[unitIndex]
}
