package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"draftflow/auth"
	"draftflow/dispute"
	"draftflow/document"
	"draftflow/lawyer"
	"draftflow/notification"
	"draftflow/payout"
	"draftflow/review"
)

// writeError maps domain sentinels onto the four HTTP error classes the API
// exposes: 400 validation, 401 authentication, 403 forbidden, 404 not found.
// Anything unrecognized is a 500 with a generic body so internals never leak.
func writeError(c echo.Context, err error) error {
	switch {
	case isValidation(err):
		return c.JSON(http.StatusBadRequest, errBody(err))
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errBody(err))
	case isForbidden(err):
		return c.JSON(http.StatusForbidden, errBody(err))
	case isNotFound(err):
		return c.JSON(http.StatusNotFound, errBody(err))
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return c.JSON(httpErr.Code, map[string]string{"error": http.StatusText(httpErr.Code)})
	}

	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func isValidation(err error) bool {
	for _, target := range []error{
		auth.ErrWeakPassword,
		auth.ErrDuplicateEmail,
		auth.ErrInvalidKYC,
		document.ErrGenerationFailed,
		document.ErrInvalidTransition,
		review.ErrInvalidTransition,
		review.ErrDocumentNotReviewable,
		review.ErrDocumentAlreadyUnderReview,
		lawyer.ErrNoneAvailable,
		payout.ErrBatchMismatch,
		payout.ErrAlreadySettled,
		payout.ErrInvalidStatus,
		dispute.ErrBadStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isForbidden(err error) bool {
	for _, target := range []error{
		auth.ErrBlocked,
		auth.ErrForbidden,
		document.ErrForbidden,
		review.ErrForbidden,
		payout.ErrForbidden,
		dispute.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	for _, target := range []error{
		auth.ErrUserNotFound,
		document.ErrNotFound,
		review.ErrNotFound,
		payout.ErrNotFound,
		lawyer.ErrNotFound,
		notification.ErrNotFound,
		dispute.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
