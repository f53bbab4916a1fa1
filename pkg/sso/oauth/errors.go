// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oauth

import (
	"errors"
	"fmt"
)

// Configuration errors, returned at construction only.
var (
	ErrPropertiesRequired      = errors.New("oauth2 service properties must be set")
	ErrUserInfoURIRequired     = errors.New("user info uri is required")
	ErrAccessTokenNameRequired = errors.New("access token parameter name is required")
)

// StatusError is a response whose status is not 200.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("user info request failed with status %d", e.StatusCode)
}

// DecodeError is a 200 response whose body is not a JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode user info: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError is a failure raised by the HTTP client before a response was read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("user info request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Outcome labels reported to a Recorder.
const (
	ResultSuccess        = "success"
	ResultHTTPError      = "http_error"
	ResultDecodeError    = "decode_error"
	ResultTransportError = "transport_error"
)

func resultOf(err error) string {
	var (
		statusErr *StatusError
		decodeErr *DecodeError
	)
	switch {
	case err == nil:
		return ResultSuccess
	case errors.As(err, &statusErr):
		return ResultHTTPError
	case errors.As(err, &decodeErr):
		return ResultDecodeError
	default:
		return ResultTransportError
	}
}
