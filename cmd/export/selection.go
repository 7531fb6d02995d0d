package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/north-cloud/webunpack/internal/domain"
)

// ParseSelection resolves a 1-based page list such as "1,3,5-8" against
// the discovered pages, in the order given and without duplicates.
func ParseSelection(spec string, pages []domain.DiscoveredPage) ([]string, error) {
	var (
		urls []string
		seen = make(map[int]bool)
	)
	add := func(n int) error {
		if n < 1 || n > len(pages) {
			return fmt.Errorf("page %d is out of range 1-%d", n, len(pages))
		}
		if !seen[n] {
			seen[n] = true
			urls = append(urls, pages[n-1].URL)
		}
		return nil
	}

	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || last < first {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		for n := first; n <= last; n++ {
			if err := add(n); err != nil {
				return nil, err
			}
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no pages selected by %q", spec)
	}
	return urls, nil
}
