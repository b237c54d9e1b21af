package utils

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MaxFileSize is the per-file upload ceiling (500 MiB).
const MaxFileSize int64 = 500 * 1024 * 1024

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatFileSize formats a byte count with binary (1024-based) units and up
// to two decimal places, trailing zeros trimmed.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d Bytes", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	value := strconv.FormatFloat(float64(bytes)/float64(div), 'f', 2, 64)
	value = strings.TrimRight(value, "0")
	value = strings.TrimRight(value, ".")
	return value + " " + sizeUnits[exp+1]
}

// CalculatePercentage returns used/limit as a percentage. The division is
// done on exact rationals before the single conversion to float64: counters
// above 2^53 lose low bits when converted to float64 individually, which
// breaks monotonicity at multi-terabyte scale.
func CalculatePercentage(used, limit int64) float64 {
	if limit == 0 {
		return 0
	}
	ratio := new(big.Rat).SetFrac64(used, limit)
	ratio.Mul(ratio, big.NewRat(100, 1))
	f, _ := ratio.Float64()
	return f
}

// WouldExceed reports whether adding additional bytes pushes used strictly
// past limit. Landing exactly on the limit is allowed. Comparing against
// the remaining headroom rather than summing keeps huge inputs from
// wrapping negative.
func WouldExceed(used, limit, additional int64) bool {
	if additional <= 0 {
		return false
	}
	return additional > limit-used
}

// ValidateFileSize rejects files over the per-file ceiling.
func ValidateFileSize(size int64) error {
	if size < 0 {
		return fmt.Errorf("invalid file size %d", size)
	}
	if size > MaxFileSize {
		return fmt.Errorf("file size %s exceeds the %s per-file limit",
			FormatFileSize(size), FormatFileSize(MaxFileSize))
	}
	return nil
}
