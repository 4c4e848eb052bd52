package xerrors

import (
	"errors"
	"fmt"

	abcitypes "github.com/tendermint/tendermint/abci/types"
)

const (
	ErrCodeSuccess uint32 = abcitypes.CodeTypeOK + iota
	ErrCodeOrdinary
	ErrCodeInitChain
	ErrCodeQuery
	ErrCodeInvalidQueryCmd
	ErrCodeInvalidQueryParams
	ErrCodeInvalidRequest
	ErrCodeNotFoundResult
	ErrCodeBeginOp
	ErrCodeCommit
	ErrCodeNotFoundAccount
	ErrCodeInsufficientFund
	ErrCodeInsufficientAllowance
	ErrCodeOverFlow
	ErrCodeZeroAddress
	ErrCodeNoRight
	ErrCodeDuplicatedProposal
	ErrCodeNotFoundProposal
	ErrCodeDateOutOfBounds
	ErrCodeNotVotingPeriod
	ErrCodeNoVotingPower
	ErrCodeShortTallyData
	ErrCodeExecutionForbidden
	ErrCodeActionReverted
	ErrCodeNotSupported
)

var (
	ErrInitChain          = New(ErrCodeInitChain, "failed to initialize chain")
	ErrQuery              = New(ErrCodeQuery, "query failed")
	ErrInvalidQueryCmd    = New(ErrCodeInvalidQueryCmd, "invalid query command")
	ErrInvalidQueryParams = New(ErrCodeInvalidQueryParams, "invalid query parameters")
	ErrInvalidRequest     = New(ErrCodeInvalidRequest, "invalid request")
	ErrNotFoundResult     = New(ErrCodeNotFoundResult, "not found result")
	ErrBeginOp            = New(ErrCodeBeginOp, "failed to begin operation")
	ErrCommit             = New(ErrCodeCommit, "failed to commit")

	ErrNotFoundAccount       = New(ErrCodeNotFoundAccount, "not found account")
	ErrInsufficientFund      = New(ErrCodeInsufficientFund, "insufficient fund")
	ErrInsufficientAllowance = New(ErrCodeInsufficientAllowance, "insufficient allowance")
	ErrOverFlow              = New(ErrCodeOverFlow, "overflow occurs")
	ErrZeroAddress           = New(ErrCodeZeroAddress, "address must not be zero")

	ErrNoRight            = New(ErrCodeNoRight, "no right")
	ErrDuplicatedProposal = New(ErrCodeDuplicatedProposal, "already registered proposal")
	ErrNotFoundProposal   = New(ErrCodeNotFoundProposal, "not found proposal")
	ErrDateOutOfBounds    = New(ErrCodeDateOutOfBounds, "date out of bounds")
	ErrNotVotingPeriod    = New(ErrCodeNotVotingPeriod, "not voting period")
	ErrNoVotingPower      = New(ErrCodeNoVotingPower, "no voting power")
	ErrShortTallyData     = New(ErrCodeShortTallyData, "too short tally data")
	ErrExecutionForbidden = New(ErrCodeExecutionForbidden, "execution forbidden")
	ErrActionReverted     = New(ErrCodeActionReverted, "action reverted")
	ErrNotSupported       = New(ErrCodeNotSupported, "not supported")
)

type XError interface {
	Code() uint32
	Error() string
	Cause() error
	With(error) XError
	Wrap(error) XError
	Wrapf(string, ...interface{}) XError
	Unwrap() error
}

type xerr struct {
	code  uint32
	msg   string
	cause error
}

func New(code uint32, msg string) XError {
	return &xerr{
		code: code,
		msg:  msg,
	}
}

func NewOrdinary(msg string) XError {
	return &xerr{
		code: ErrCodeOrdinary,
		msg:  msg,
	}
}

// From returns err as XError. A plain error becomes an ordinary XError.
func From(err error) XError {
	if err == nil {
		return nil
	}
	var x XError
	if errors.As(err, &x) {
		return x
	}
	return &xerr{
		code: ErrCodeOrdinary,
		msg:  err.Error(),
	}
}

func (e *xerr) Code() uint32 {
	return e.code
}

func (e *xerr) Error() string {
	if e.cause != nil {
		return e.msg + "<<" + e.cause.Error()
	}
	return e.msg
}

func (e *xerr) Cause() error {
	return e.cause
}

func (e *xerr) Unwrap() error {
	return e.Cause()
}

func (e *xerr) With(err error) XError {
	return &xerr{
		code:  e.code,
		msg:   e.msg,
		cause: err,
	}
}

func (e *xerr) Wrap(err error) XError {
	return e.With(err)
}

func (e *xerr) Wrapf(format string, args ...interface{}) XError {
	return e.With(fmt.Errorf(format, args...))
}
