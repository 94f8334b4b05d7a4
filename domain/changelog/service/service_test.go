// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package service

import (
	"context"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/juju/changeset/core/changeset"
	"github.com/juju/changeset/core/transaction"
	"github.com/juju/changeset/domain/changelog"
	changelogerrors "github.com/juju/changeset/domain/changelog/errors"
)

type serviceSuite struct {
	testing.IsolationSuite

	state *MockState
	clock *testclock.Clock
}

var _ = gc.Suite(&serviceSuite{})

const txnUUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

func (s *serviceSuite) setupMocks(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)

	s.state = NewMockState(ctrl)
	s.clock = testclock.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	return ctrl
}

func (s *serviceSuite) newService() *Service {
	return NewService(s.state, s.clock, loggo.GetLogger("changeset.changelog.service"))
}

func (s *serviceSuite) TestCommitted(c *gc.C) {
	defer s.setupMocks(c).Finish()

	now := s.clock.Now()
	record := transaction.Record{
		UUID:      txnUUID,
		Version:   7,
		Started:   now.Add(-time.Second),
		Committed: now,
		Diffs: []changeset.Diff{{
			Owner:    "o1",
			Property: "name",
			Kind:     changeset.ValueKind,
			Old:      "foo",
			New:      "bar",
		}, {
			Owner:    "o1",
			Property: "tags",
			Kind:     changeset.ListKind,
			Old:      []any{},
			New:      []any{"a", "b"},
		}, {
			Owner:    "o1",
			Property: "friend",
			Kind:     changeset.ValueKind,
			Old:      nil,
			New:      map[string]any{"name": "x"},
		}},
	}

	s.state.EXPECT().InsertTransaction(gomock.Any(), changelog.Transaction{
		UUID:      txnUUID,
		Version:   7,
		Started:   now.Add(-time.Second),
		Committed: now,
		Entries: []changelog.Entry{
			{Owner: "o1", Property: "name", Kind: "value", Old: "foo", New: "bar"},
			{Owner: "o1", Property: "tags", Kind: "list", Old: "[]", New: "[a, b]"},
			{Owner: "o1", Property: "friend", Kind: "value", Old: "null", New: "{name: x}"},
		},
	}).Return(nil)

	err := s.newService().Committed(context.Background(), record)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *serviceSuite) TestCommittedWithoutChanges(c *gc.C) {
	defer s.setupMocks(c).Finish()

	err := s.newService().Committed(context.Background(), transaction.Record{UUID: txnUUID})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *serviceSuite) TestCommittedError(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.state.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).Return(changelogerrors.AlreadyRecorded)

	err := s.newService().Committed(context.Background(), transaction.Record{
		UUID:  txnUUID,
		Diffs: []changeset.Diff{{Property: "name", Old: "a", New: "b"}},
	})
	c.Assert(err, jc.ErrorIs, changelogerrors.AlreadyRecorded)
	c.Check(err, gc.ErrorMatches, `recording transaction `+txnUUID+`: .*`)
}

func (s *serviceSuite) TestHistory(c *gc.C) {
	defer s.setupMocks(c).Finish()

	filter := changelog.Filter{Owner: "o1", Limit: 5}
	expected := []changelog.Transaction{{UUID: txnUUID}}
	s.state.EXPECT().Transactions(gomock.Any(), filter).Return(expected, nil)

	result, err := s.newService().History(context.Background(), filter)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result, jc.DeepEquals, expected)
}

func (s *serviceSuite) TestHistoryNegativeLimit(c *gc.C) {
	defer s.setupMocks(c).Finish()

	_, err := s.newService().History(context.Background(), changelog.Filter{Limit: -1})
	c.Assert(err, jc.ErrorIs, errors.NotValid)
}

func (s *serviceSuite) TestTransaction(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.state.EXPECT().Transaction(gomock.Any(), txnUUID).Return(changelog.Transaction{UUID: txnUUID}, nil)

	result, err := s.newService().Transaction(context.Background(), txnUUID)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.UUID, gc.Equals, txnUUID)
}

func (s *serviceSuite) TestTransactionNotFound(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.state.EXPECT().Transaction(gomock.Any(), txnUUID).Return(changelog.Transaction{}, changelogerrors.NotFound)

	_, err := s.newService().Transaction(context.Background(), txnUUID)
	c.Assert(err, jc.ErrorIs, changelogerrors.NotFound)
}

func (s *serviceSuite) TestTransactionInvalidUUID(c *gc.C) {
	defer s.setupMocks(c).Finish()

	_, err := s.newService().Transaction(context.Background(), "not-a-uuid")
	c.Assert(err, jc.ErrorIs, errors.NotValid)
}

func (s *serviceSuite) TestPrune(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.state.EXPECT().DeleteCommittedBefore(gomock.Any(), s.clock.Now().Add(-time.Hour)).Return(int64(3), nil)

	deleted, err := s.newService().Prune(context.Background(), time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(deleted, gc.Equals, int64(3))
}

func (s *serviceSuite) TestPruneError(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.state.EXPECT().DeleteCommittedBefore(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("boom"))

	_, err := s.newService().Prune(context.Background(), time.Hour)
	c.Assert(err, gc.ErrorMatches, "pruning change log: boom")
}

func (s *serviceSuite) TestPruneInvalidMaxAge(c *gc.C) {
	defer s.setupMocks(c).Finish()

	_, err := s.newService().Prune(context.Background(), 0)
	c.Assert(err, jc.ErrorIs, errors.NotValid)
}

func (s *serviceSuite) TestEncodeDecodeValue(c *gc.C) {
	tests := []struct {
		value   any
		encoded string
	}{
		{nil, "null"},
		{"foo", "foo"},
		{42, "42"},
		{true, "true"},
		{[]any{"a", "b"}, "[a, b]"},
		{map[string]any{"a": []any{"b"}}, "{a: [b]}"},
	}
	for i, test := range tests {
		c.Logf("test %d: %v", i, test.value)

		encoded, err := EncodeValue(test.value)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(encoded, gc.Equals, test.encoded)

		decoded, err := DecodeValue(encoded)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(decoded, jc.DeepEquals, test.value)
	}
}
