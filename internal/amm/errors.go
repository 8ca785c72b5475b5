package amm

import (
	"errors"
	"fmt"
)

// Error is an engine failure carrying a stable numeric code.
type Error struct {
	Code uint32
	Name string
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("amm: %s (%d)", e.msg, e.Code)
}

var (
	ErrNotAuthorized         = &Error{Code: 401, Name: "NotAuthorized", msg: "caller is not authorized"}
	ErrZeroAmount            = &Error{Code: 402, Name: "ZeroAmount", msg: "amount must be positive"}
	ErrInsufficientLiquidity = &Error{Code: 403, Name: "InsufficientLiquidity", msg: "insufficient liquidity"}
	ErrSlippageExceeded      = &Error{Code: 404, Name: "SlippageExceeded", msg: "output below minimum"}
	ErrPairNotSupported      = &Error{Code: 405, Name: "PairNotSupported", msg: "pair not supported"}
	ErrPairDisabled          = &Error{Code: 406, Name: "PairDisabled", msg: "pair disabled"}
	ErrNoPosition            = &Error{Code: 407, Name: "NoPosition", msg: "no liquidity position"}
	ErrInsufficientShares    = &Error{Code: 408, Name: "InsufficientShares", msg: "insufficient shares"}
	ErrArithmeticOverflow    = &Error{Code: 409, Name: "ArithmeticOverflow", msg: "arithmetic overflow"}
)

var (
	errOracleNotConfigured = errors.New("amm: oracle not configured")
	errPrincipalRequired   = errors.New("amm: principal required")
)

// Codes lists every engine error in code order.
var Codes = []*Error{
	ErrNotAuthorized,
	ErrZeroAmount,
	ErrInsufficientLiquidity,
	ErrSlippageExceeded,
	ErrPairNotSupported,
	ErrPairDisabled,
	ErrNoPosition,
	ErrInsufficientShares,
	ErrArithmeticOverflow,
}

// Code returns the engine code carried by err, or zero when err is not an
// engine failure.
func Code(err error) uint32 {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
