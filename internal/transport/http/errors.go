package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeNotFound           = "not_found"
	codeForbidden          = "forbidden"
	codeOwnerRequired      = "owner_required"
	codeTitleRequired      = "title_required"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidInterval    = "invalid_interval"
	codeInvalidDuration    = "invalid_duration"
	codeActionNotFound     = "action_not_found_or_expired"
	codeUnsupportedAction  = "unsupported_action"
	codeGatewayUnavailable = "calendar_unavailable"
	codeGatewayAuth        = "calendar_unauthorized"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
