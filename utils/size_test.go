package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanFileSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0bytes"},
		{1, "1bytes"},
		{1023, "1023bytes"},
		{1024, "1KB"},
		{1536, "1.5KB"},
		{1024 * 1024, "1MB"},
		{1024 * 1024 * 5, "5MB"},
		{3407872, "3.25MB"},
		{1024 * 1024 * 1024, "1GB"},
		{1 << 40, "1TB"},
		{1 << 50, "1024TB"},
		{1025, "1.001KB"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HumanFileSize(tc.in), "HumanFileSize(%d)", tc.in)
	}
}
