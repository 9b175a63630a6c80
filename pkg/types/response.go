package types

import "github.com/angelmondragon/citypulse-backend/pkg/pagination"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// PageEnvelope wraps a list response together with its page metadata.
type PageEnvelope struct {
	Data any             `json:"data"`
	Page pagination.Meta `json:"page"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
