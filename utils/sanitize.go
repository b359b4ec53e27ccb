package utils

import "strings"

// SanitizeHeaderFilename removes characters that can break headers.
func SanitizeHeaderFilename(name string) string {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "download"
	}
	clean = strings.ReplaceAll(clean, "\r", "")
	clean = strings.ReplaceAll(clean, "\n", "")
	clean = strings.ReplaceAll(clean, "\"", "")
	return clean
}

// SanitizeFilename turns an untrusted client filename into a single path
// component: separators and ".." can never survive it.
func SanitizeFilename(name string) string {
	clean := strings.ReplaceAll(name, "\x00", "")
	clean = strings.TrimSpace(clean)
	clean = strings.ReplaceAll(clean, "\\", "/")
	clean = strings.ReplaceAll(clean, "/", "_")
	clean = strings.ReplaceAll(clean, "..", "_")
	if clean == "" || clean == "." {
		return "unnamed"
	}
	return clean
}
