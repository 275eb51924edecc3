// Copyright (C) 2025 vanish.chat <dev@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package errors

import "net/http"

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidTTL      Code = "INVALID_TTL"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeBlocked         Code = "BLOCKED"
	// CodeConflict marks a lost chat-creation race. The resolver recovers
	// it with a retry-as-lookup; it must not reach a client.
	CodeConflict     Code = "CONFLICT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInternal     Code = "INTERNAL"
)

// HTTPStatus maps a code to the status the handlers respond with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument, CodeInvalidTTL:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeBlocked, CodeUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
