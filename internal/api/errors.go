// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/footfall/internal/analytics"
	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/storage"
	syncpkg "github.com/tomtom215/footfall/internal/sync"
	"github.com/tomtom215/footfall/internal/validation"
)

// writeServiceError maps a domain error onto a status code and error code.
func (rw *ResponseWriter) writeServiceError(err error) {
	var (
		verr    *validation.RequestValidationError
		missing *storage.MissingFilesError
		colErr  *analytics.ColumnError
	)
	switch {
	case errors.As(err, &verr):
		rw.ValidationError("Request validation failed", verr.Details())
	case errors.As(err, &missing):
		rw.ErrorWithDetails(http.StatusNotFound, ErrCodeDataNotFound, err.Error(),
			map[string]interface{}{"missing_files": missing.Files})
	case errors.As(err, &colErr):
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeUnprocessable, err.Error(),
			map[string]interface{}{"file": colErr.File, "missing": colErr.Missing, "found": colErr.Found})
	case errors.Is(err, analytics.ErrEmptyData),
		errors.Is(err, storage.ErrUnreadable),
		errors.Is(err, charts.ErrEmptyChart):
		rw.Error(http.StatusUnprocessableEntity, ErrCodeUnprocessable, err.Error())
	case errors.Is(err, charts.ErrNotRenderable):
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, syncpkg.ErrUnknownPage):
		rw.NotFound(err.Error())
	case errors.Is(err, syncpkg.ErrTokenMissing), errors.Is(err, syncpkg.ErrTokenExpired):
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusRequestTimeout, ErrCodeRequestCancelled, err.Error())
	default:
		rw.InternalError(err)
	}
}
