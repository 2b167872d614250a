package utils

import (
	"decred.org/dcrwallet/v2/errors"
	"github.com/asdine/storm"
)

const (
	// Error Codes
	ErrInvalid                      = "invalid"
	ErrExist                        = "exists"
	ErrNotExist                     = "not_exists"
	ErrInvalidAddress               = "invalid_address"
	ErrUnavailable                  = "unavailable"
	ErrContextCanceled              = "context_canceled"
	ErrSyncAlreadyInProgress        = "sync_already_in_progress"
	ErrListenerAlreadyExist         = "listener_already_exist"
	ErrLoggerAlreadyRegistered      = "logger_already_registered"
	ErrLogRotatorAlreadyInitialized = "log_rotator_already_initialized"
	ErrDatabaseInUse                = "db_in_use"
	ErrMiningInProgress             = "mining_in_progress"
	ErrNotAllowed                   = "action_not_allowed"
	ErrNoCoinbase                   = "no_coinbase"
	ErrInvalidAmount                = "invalid_amount"
	ErrInvalidOption                = "invalid_option"
	ErrNothingToConfirm             = "nothing_to_confirm"
)

var (
	ErrInvalidNet = errors.New("invalid network type found")
)

// TranslateError maps storage and wallet error kinds onto the package error
// codes.
func TranslateError(err error) error {
	if err == storm.ErrNotFound {
		return errors.New(ErrNotExist)
	}
	if err, ok := err.(*errors.Error); ok {
		switch err.Kind {
		case errors.NotExist:
			return errors.New(ErrNotExist)
		case errors.Exist:
			return errors.New(ErrExist)
		case errors.Invalid:
			return errors.New(ErrInvalid)
		}
	}
	return err
}
