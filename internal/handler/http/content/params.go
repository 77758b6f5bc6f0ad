package content

import (
	"fmt"
	"strconv"
	"strings"

	"astrofeed/internal/domain/entity"
	contentUC "astrofeed/internal/usecase/content"
)

var errInvalidLimit = fmt.Errorf("%w: limit must be a positive integer", entity.ErrInvalidInput)

// parseDate accepts YYYY-MM-DD or "today".
func parseDate(s string, clock Clock) (entity.Period, error) {
	if strings.EqualFold(s, "today") {
		return clock.today(), nil
	}
	return entity.ParsePeriod(s)
}

// parseLimit returns 0 for an absent limit so the use case applies its default.
func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errInvalidLimit
	}
	return min(n, contentUC.MaxLimit), nil
}

func effectiveLimit(n int) int {
	if n == 0 {
		return contentUC.DefaultLimit
	}
	return n
}
