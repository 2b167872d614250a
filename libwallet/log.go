// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package libwallet

import (
	"github.com/crypto-power/oraclevoting/libwallet/ext"
	"github.com/crypto-power/oraclevoting/libwallet/internal/chain"
	"github.com/crypto-power/oraclevoting/libwallet/internal/deferredvote"
	"github.com/crypto-power/oraclevoting/libwallet/internal/txpoller"
	"github.com/crypto-power/oraclevoting/libwallet/internal/voting"
	"github.com/crypto-power/oraclevoting/libwallet/internal/votinglist"
	"github.com/crypto-power/oraclevoting/libwallet/walletdata"
	"github.com/decred/slog"
)

// log is a logger that is initialized with no output filters.  This
// means the package will not perform any logging by default until the caller
// requests it.
var log = slog.Disabled

// Subsystem identifiers of the loggers used by this package and the packages
// it wires.
const (
	LogSubsystem          = "DLWL"
	ExtLogSubsystem       = "EXT"
	NodeLogSubsystem      = "NODE"
	PollerLogSubsystem    = "TXPL"
	VotingLogSubsystem    = "VOTE"
	SchedulerLogSubsystem = "DVOT"
	ListLogSubsystem      = "LIST"
	DataLogSubsystem      = "WDAT"
)

// Subsystems lists every subsystem identifier UseLoggers understands.
var Subsystems = []string{
	LogSubsystem,
	ExtLogSubsystem,
	NodeLogSubsystem,
	PollerLogSubsystem,
	VotingLogSubsystem,
	SchedulerLogSubsystem,
	ListLogSubsystem,
	DataLogSubsystem,
}

// UseLogger sets the package logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// UseLoggers hands each subsystem its logger. Subsystems missing from loggers
// keep logging disabled.
func UseLoggers(loggers map[string]slog.Logger) {
	for subsystem, logger := range loggers {
		switch subsystem {
		case LogSubsystem:
			log = logger
		case ExtLogSubsystem:
			ext.UseLogger(logger)
		case NodeLogSubsystem:
			chain.UseLogger(logger)
		case PollerLogSubsystem:
			txpoller.UseLogger(logger)
		case VotingLogSubsystem:
			voting.UseLogger(logger)
		case SchedulerLogSubsystem:
			deferredvote.UseLogger(logger)
		case ListLogSubsystem:
			votinglist.UseLogger(logger)
		case DataLogSubsystem:
			walletdata.UseLogger(logger)
		}
	}
}
