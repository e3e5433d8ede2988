package utils

import (
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrBadPagination = errors.New("page must be >= 1 and limit between 1 and 100")

// ParsePagination reads page/limit query values. Empty values take the defaults.
func ParsePagination(pageRaw, limitRaw string) (page, limit int, err error) {
	page, err = parsePositive(pageRaw, DefaultPage)
	if err != nil {
		return 0, 0, err
	}

	limit, err = parsePositive(limitRaw, DefaultLimit)
	if err != nil || limit > MaxLimit {
		return 0, 0, ErrBadPagination
	}

	return page, limit, nil
}

func parsePositive(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrBadPagination
	}
	return n, nil
}
