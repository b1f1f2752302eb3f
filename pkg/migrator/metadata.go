package migrator

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// metadataMarkers are the accepted first lines of an embedded metadata block.
var metadataMarkers = []string{"metadata:", "-- metadata:", "// metadata:"}

type (
	// Metadata holds the per-file overrides declared in a migration's leading
	// comment block. Nil fields fall back to the filename description and the
	// configured consistency and delay.
	Metadata struct {
		Description     *string `yaml:"description,omitempty"`
		Consistency     *string `yaml:"consistency,omitempty"`
		InvocationDelay *int    `yaml:"invocationDelay,omitempty"`
	}

	metadataDocument struct {
		Metadata *Metadata `yaml:"metadata"`
	}
)

// ExtractMetadata returns the metadata block at the very start of contents, or
// nil when there is none.
//
// The first line must be one of "metadata:", "-- metadata:" or
// "// metadata:". Lines are consumed up to the first blank line, their "-- " or
// "// " comment prefix is removed, and the result is decoded as YAML. A block
// that does not decode is treated as absent rather than as an error.
func ExtractMetadata(contents string) *Metadata {
	lines := strings.Split(contents, "\n")
	if !isMetadataMarker(strings.TrimSpace(lines[0])) {
		return nil
	}

	block := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			break
		}

		block = append(block, uncomment(line))
	}

	var doc metadataDocument
	if err := yaml.Unmarshal([]byte(strings.Join(block, "\n")), &doc); err != nil {
		return nil
	}

	return doc.Metadata
}

func isMetadataMarker(line string) bool {
	for _, m := range metadataMarkers {
		if line == m {
			return true
		}
	}

	return false
}

func uncomment(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	for _, prefix := range []string{"--", "//"} {
		if trimmed == prefix {
			return ""
		}

		if strings.HasPrefix(trimmed, prefix+" ") {
			return trimmed[len(prefix)+1:]
		}
	}

	return line
}
