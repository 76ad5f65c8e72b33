package services

import (
	"database/sql"
	"errors"
	"strings"

	"travelatlas/internal/domain"
	"travelatlas/internal/utils"

	"github.com/google/uuid"
)

// now is swapped in tests.
var now = utils.NowUTC

func newID() string { return uuid.NewString() }

// repoError maps repository errors onto domain errors.
func repoError(resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	if domain.IsValidation(err) || domain.IsConflict(err) || domain.IsForbidden(err) || domain.IsNotFound(err) {
		return err
	}
	return domain.InternalError{Msg: resource + " storage error", Err: err}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.UnauthorizedError{Msg: "authentication required"}
	}
	return nil
}
