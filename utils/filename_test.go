package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	assert.Equal(t, "txt", Extension("a.txt"))
	assert.Equal(t, "gz", Extension("backup.tar.gz"))
	assert.Equal(t, "", Extension("README"))
	assert.Equal(t, "png", Extension("dir/sub/pic.png"))
	assert.Equal(t, "", Extension("dir.d/file"))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "a", Stem("a.txt"))
	assert.Equal(t, "backup.tar", Stem("backup.tar.gz"))
	assert.Equal(t, "README", Stem("README"))
}

func TestTrimFilenameNoMax(t *testing.T) {
	long := strings.Repeat("x", 500) + ".bin"
	assert.Equal(t, long, TrimFilename(long, 0))
}

func TestTrimFilenameShortEnough(t *testing.T) {
	// allowance = 20 - 3 - 3 - 5 = 9
	assert.Equal(t, "short.txt", TrimFilename("short.txt", 20))
}

func TestTrimFilenameUsesFourDots(t *testing.T) {
	// allowance = 20 - 3 - 3 - 5 = 9
	got := TrimFilename("abcdefghijklmnop.txt", 20)
	assert.Equal(t, "abcdefghi....txt", got)
}

func TestTrimFilenameKeepsRuneBoundary(t *testing.T) {
	// allowance = 16 - 3 - 3 - 5 = 5; "é" is two bytes and straddles byte 5
	got := TrimFilename("abcdéfghij.txt", 16)
	assert.Equal(t, "abcd....txt", got)
}

func TestTrimFilenameLongExtensionFitsMax(t *testing.T) {
	name := "a." + strings.Repeat("e", 200)
	got := TrimFilename(name, 128)
	assert.Len(t, got, 128)
	assert.True(t, strings.HasPrefix(got, "...."))
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "abc", TruncateBytes("abc", 10))
	assert.Equal(t, "ab", TruncateBytes("abc", 2))
	assert.Equal(t, "a", TruncateBytes("aé", 2))
	assert.Equal(t, "", TruncateBytes("abc", -1))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "____etc_passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "a_b.txt", SanitizeFilename(`a\b.txt`))
	assert.Equal(t, "unnamed", SanitizeFilename("   "))
	assert.Equal(t, "unnamed", SanitizeFilename("."))
	assert.Equal(t, "_", SanitizeFilename(".."))
	assert.Equal(t, "report.pdf", SanitizeFilename(" report.pdf "))
	assert.NotContains(t, SanitizeFilename("x/../../y"), "/")
}

func TestSanitizeHeaderFilename(t *testing.T) {
	assert.Equal(t, "download", SanitizeHeaderFilename(" "))
	assert.Equal(t, "ab.zip", SanitizeHeaderFilename("a\r\n\"b.zip"))
}
