package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

var seasonPattern = regexp.MustCompile(`(\d{4})-(\d{4})`)

// SeasonFromFilename extracts a "YYYY-YYYY" label from a file name such as
// "all-euro-data-2023-2024.xlsx". The second year must follow the first.
func SeasonFromFilename(name string) (string, bool) {
	base := filepath.Base(name)
	for _, m := range seasonPattern.FindAllStringSubmatch(base, -1) {
		first, err1 := strconv.Atoi(m[1])
		second, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		if second == first+1 {
			return fmt.Sprintf("%d-%d", first, second), true
		}
	}
	return "", false
}

// ValidSeason reports whether label has the "YYYY-YYYY" shape with consecutive years.
func ValidSeason(label string) bool {
	s, ok := SeasonFromFilename(label)
	return ok && s == label
}
