package ffmpeg

import (
	"context"
	"regexp"
	"strings"

	"mixdown/internal/services"
)

// versionToken matches either a dotted release ("6.1.1") or a git build
// string ("N-113007-g8d6e9ea8a3").
var versionToken = regexp.MustCompile(`^(\d+(?:\.\d+)+|N-\d+-g[0-9a-f]+)$`)

// Version probes the binary and extracts its version token from the first
// line of `-version` output.
func (c *Client) Version(ctx context.Context) (string, error) {
	result, err := c.Run(ctx, []string{"-version"}, nil)
	if err != nil {
		return "", err
	}
	version := parseVersionOutput(result.Stdout)
	if version == "" {
		version = parseVersionOutput(result.Stderr)
	}
	if version == "" {
		return "", services.Wrap(services.ErrValidation, "ffmpeg", "version", "unrecognized version output", nil)
	}
	return version, nil
}

func parseVersionOutput(output string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	for _, token := range strings.Fields(line) {
		if versionToken.MatchString(token) {
			return token
		}
	}
	return ""
}
