// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package errors

import (
	"github.com/juju/errors"
)

const (
	// NotFound describes an error that occurs when a transaction is not in
	// the change log.
	NotFound = errors.ConstError("change log transaction not found")

	// AlreadyRecorded describes an error that occurs when a transaction is
	// recorded in the change log twice.
	AlreadyRecorded = errors.ConstError("change log transaction already recorded")
)
