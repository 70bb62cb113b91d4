package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
)

var timePattern = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

// ParseProgress extracts the elapsed-time marker from an ffmpeg -stats line
// and scales it against the total duration into a percentage. It reports false
// for lines without a marker or when the duration is unknown.
func ParseProgress(line string, durationSeconds float64) (float64, bool) {
	if durationSeconds <= 0 || !strings.Contains(line, "time=") {
		return 0, false
	}
	match := timePattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return 0, false
	}

	elapsed := float64(hours)*3600 + float64(minutes)*60 + seconds
	percent := elapsed / durationSeconds * 100
	if percent > 100 {
		percent = 100
	}
	return percent, true
}
