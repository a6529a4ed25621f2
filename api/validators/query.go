package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// ParseQueryInt reads a bounded integer query parameter with a default.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryPage reads page/limit into the repository paging shape.
func ParseQueryPage(r *http.Request) (repo.Page, error) {
	number, err := ParseQueryInt(r, "page", 0, 0, 1<<20)
	if err != nil {
		return repo.Page{}, err
	}
	limit, err := ParseQueryInt(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		return repo.Page{}, err
	}
	return repo.Page{Number: number, Limit: limit}, nil
}

// ParsePathUUID resolves a path parameter as a UUID.
func ParsePathUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a uuid").
			WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
