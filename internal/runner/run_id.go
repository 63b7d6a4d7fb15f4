package runner

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const runIDSuffixLen = 12

// NewRunID returns a sortable run identifier with a random suffix.
func NewRunID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return FormatRunID(time.Now(), strings.ReplaceAll(id.String(), "-", "")[:runIDSuffixLen]), nil
}

// FormatRunID joins a UTC timestamp and suffix.
func FormatRunID(now time.Time, suffix string) string {
	return now.UTC().Format("20060102T150405Z") + "-" + suffix
}
