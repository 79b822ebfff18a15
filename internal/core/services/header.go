package services

import (
	"fmt"
	"os"
	"strings"
)

const (
	ByteOrderKey       = "BYTEORDER"
	ByteOrderBigEndian = "M" // Motorola
)

// RewriteByteOrder returns a copy of lines where every line starting with key
// becomes "key=marker". Other lines pass through unchanged; order and count
// are preserved. The second result is the number of lines replaced.
func RewriteByteOrder(lines []string, key, marker string) ([]string, int) {
	out := make([]string, len(lines))
	replaced := 0
	for i, line := range lines {
		if strings.HasPrefix(line, key) {
			out[i] = key + "=" + marker
			replaced++
			continue
		}
		out[i] = line
	}
	return out, replaced
}

// RewriteHeaderFile forces the header at path to declare big-endian samples,
// adding the declaration if the header has none
func RewriteHeaderFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}

	rewritten, n := RewriteByteOrder(lines, ByteOrderKey, ByteOrderBigEndian)
	if n == 0 {
		// Readers assume host order when the field is missing
		rewritten = append(rewritten, ByteOrderKey+"="+ByteOrderBigEndian)
	}
	out := strings.Join(rewritten, "\n") + "\n"

	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}
