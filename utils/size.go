package utils

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"bytes", "KB", "MB", "GB", "TB"}

// HumanFileSize formats a byte count as e.g. "3.25MB".
func HumanFileSize(bytes int64) string {
	size := float64(bytes)
	level := 0
	for size >= 1024 && level < len(sizeUnits)-1 {
		size /= 1024
		level++
	}
	size = math.Round(size*1000) / 1000
	return strconv.FormatFloat(size, 'f', -1, 64) + sizeUnits[level]
}
