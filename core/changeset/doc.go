// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package changeset records provisional mutations of structured values.
//
// A changeset belongs to one owner inside one transaction. It records
// changes without touching the owner; the owner's live state is only
// written when the changeset is applied. Discarding a changeset is
// therefore always a complete rollback.
//
// There are three kinds of changeset:
//
//   - ComplexChangeset tracks named property changes of a complex value.
//   - ListChangeset tracks structural edits (add, remove, update, sort,
//     clear) of a list value and replays them to compute its new value.
//   - ChangeRef tracks pending back reference additions and removals of a
//     value that other values point at.
//
// Changesets are not safe for concurrent use.
package changeset
