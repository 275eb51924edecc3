// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/vanishchat/vanish/backend/errors"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// respondError maps the error taxonomy to an HTTP status. Untyped
// errors surface as a bare 500; internal detail stays out of the body.
func respondError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.HTTPStatus(code)

	message := err.Error()
	if code == apperrors.CodeInternal {
		message = "internal error"
	}

	respondJSON(w, status, map[string]string{
		"code":    string(code),
		"message": message,
	})
}
