package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/token"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  uint32 `json:"code,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, amm.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, amm.ErrZeroAmount), errors.Is(err, amm.ErrArithmeticOverflow):
		return http.StatusBadRequest
	case errors.Is(err, amm.ErrPairNotSupported), errors.Is(err, amm.ErrNoPosition):
		return http.StatusNotFound
	case errors.Is(err, amm.ErrInsufficientLiquidity),
		errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrPairDisabled),
		errors.Is(err, amm.ErrInsufficientShares),
		errors.Is(err, token.ErrInsufficientBalance):
		return http.StatusConflict
	case amm.IsOracleError(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), err.Error(), amm.Code(err))
}

func writeJSONError(w http.ResponseWriter, status int, msg string, code uint32) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
