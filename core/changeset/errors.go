// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package changeset

import "github.com/juju/errors"

const (
	// ArgumentRequired describes an error that occurs when a mandatory
	// argument, such as an owner, a transaction or a property name, is
	// missing.
	ArgumentRequired = errors.ConstError("argument required")

	// InvalidOperation describes an error that occurs when a read-only
	// changeset is mutated, or when a changeset is applied twice.
	InvalidOperation = errors.ConstError("invalid operation")

	// PropertyNotFound describes an error that occurs when a property name
	// does not resolve to a property of the owner's type.
	PropertyNotFound = errors.ConstError("property not found")

	// TypeMismatch describes an error that occurs when a value cannot be
	// converted to the declared type of a property or list element.
	TypeMismatch = errors.ConstError("type mismatch")
)
