// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"strings"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/changeset/core/changeset"
	"github.com/juju/changeset/core/transaction"
	"github.com/juju/changeset/core/value"
)

const peopleScript = `
types:
- name: person
  key: name
  properties:
  - {name: name, type: string}
  - {name: age, type: int}
  - {name: nicknames, type: list}
- name: team
  properties:
  - {name: lead, type: ref, ref: person}
  - {name: members, type: list, elements: person}
objects:
- id: alice
  type: person
  value: {name: alice, age: 30}
- id: bob
  type: person
  value: {name: bob, nicknames: [bobby]}
- id: devs
  type: team
  value:
    lead: {$ref: alice}
    members: [{$ref: alice}]
transactions:
- name: birthday
  steps:
  - {op: set, object: alice, property: age, value: 31}
  - {op: add, object: alice, property: nicknames, value: [ali, al]}
- name: hire
  rollback: true
  steps:
  - {op: add, object: devs, property: members, value: [{$ref: bob}]}
- name: broken
  steps:
  - {op: set, object: alice, property: age, value: 32}
  - {op: set, object: alice, property: height, value: 1}
`

type scriptSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&scriptSuite{})

func (s *scriptSuite) parse(c *gc.C, text string) Script {
	script, err := ParseScript(strings.NewReader(text))
	c.Assert(err, jc.ErrorIsNil)
	return script
}

func (s *scriptSuite) newWorld(c *gc.C) (*world, Script) {
	script := s.parse(c, peopleScript)
	w, err := newWorld(script)
	c.Assert(err, jc.ErrorIsNil)
	return w, script
}

func (s *scriptSuite) newManager(c *gc.C) *transaction.Manager {
	manager, err := transaction.NewManager(transaction.Config{
		Clock:  testclock.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		Logger: loggo.GetLogger("test"),
	})
	c.Assert(err, jc.ErrorIsNil)
	return manager
}

func (s *scriptSuite) TestParseScript(c *gc.C) {
	script := s.parse(c, peopleScript)
	c.Check(script.Types, gc.HasLen, 2)
	c.Check(script.Objects, gc.HasLen, 3)
	c.Assert(script.Transactions, gc.HasLen, 3)
	c.Check(script.Transactions[1].Rollback, jc.IsTrue)
	c.Check(script.Transactions[0].Steps[1], jc.DeepEquals, StepSpec{
		Op:       "add",
		Object:   "alice",
		Property: "nicknames",
		Value:    []any{"ali", "al"},
	})
}

func (s *scriptSuite) TestParseScriptUnknownField(c *gc.C) {
	_, err := ParseScript(strings.NewReader("types: []\nbogus: 1\n"))
	c.Check(err, gc.ErrorMatches, `(?s)parsing script: .*field bogus not found.*`)
}

func (s *scriptSuite) TestParseScriptEmpty(c *gc.C) {
	_, err := ParseScript(strings.NewReader(""))
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *scriptSuite) TestParseScriptBadPropertyType(c *gc.C) {
	_, err := ParseScript(strings.NewReader(`
types:
- name: person
  properties:
  - {name: name, type: blob}
`))
	c.Check(err, jc.ErrorIs, errors.NotValid)
	c.Check(err, gc.ErrorMatches, `(?s)script \(.*types\.0\.properties\.0\.type.*\) not valid`)
}

func (s *scriptSuite) TestParseScriptBadOp(c *gc.C) {
	_, err := ParseScript(strings.NewReader(`
transactions:
- steps:
  - {op: explode, object: bob, property: nicknames}
`))
	c.Check(err, jc.ErrorIs, errors.NotValid)
	c.Check(err, gc.ErrorMatches, `(?s)script \(.*transactions\.0\.steps\.0\.op.*\) not valid`)
}

func (s *scriptSuite) TestParseScriptMissingRequired(c *gc.C) {
	_, err := ParseScript(strings.NewReader(`
objects:
- {type: person}
`))
	c.Check(err, jc.ErrorIs, errors.NotValid)
	c.Check(err, gc.ErrorMatches, `(?s)script \(.*id.*\) not valid`)

	_, err = ParseScript(strings.NewReader(`
transactions:
- steps:
  - {op: remove-at, object: bob, property: nicknames, count: -1}
`))
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *scriptSuite) TestNewWorld(c *gc.C) {
	w, _ := s.newWorld(c)
	c.Check(w.order, jc.DeepEquals, []string{"alice", "bob", "devs"})

	devs, err := w.lookupObject("devs")
	c.Assert(err, jc.ErrorIsNil)
	alice, err := w.lookupObject("alice")
	c.Assert(err, jc.ErrorIsNil)

	lead, err := devs.Get("lead")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(lead, gc.Equals, alice)

	members, err := devs.List("members")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(members.Len(), gc.Equals, 1)
	c.Check(members.At(0), gc.Equals, alice)
}

func (s *scriptSuite) TestNewWorldUnknownType(c *gc.C) {
	_, err := newWorld(s.parse(c, `
objects:
- {id: r2, type: robot}
`))
	c.Check(err, jc.ErrorIs, errors.NotFound)
	c.Check(err, gc.ErrorMatches, `object "r2": type "robot" not found`)
}

func (s *scriptSuite) TestNewWorldForwardTypeReference(c *gc.C) {
	_, err := newWorld(s.parse(c, `
types:
- name: team
  properties:
  - {name: lead, type: ref, ref: person}
- name: person
  properties:
  - {name: name}
`))
	c.Check(err, gc.ErrorMatches, `type "team": property "lead": type "person" not found`)
}

func (s *scriptSuite) TestNewWorldBadPropertyType(c *gc.C) {
	_, err := newWorld(Script{
		Types: []TypeSpec{{
			Name:       "person",
			Properties: []PropertySpec{{Name: "name", Type: "blob"}},
		}},
	})
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *scriptSuite) TestNewWorldDuplicates(c *gc.C) {
	_, err := newWorld(s.parse(c, `
types:
- {name: person, properties: [{name: name}]}
- {name: person, properties: [{name: name}]}
`))
	c.Check(err, jc.ErrorIs, errors.AlreadyExists)

	_, err = newWorld(s.parse(c, `
types:
- {name: person, properties: [{name: name}]}
objects:
- {id: alice, type: person}
- {id: alice, type: person}
`))
	c.Check(err, jc.ErrorIs, errors.AlreadyExists)
}

func (s *scriptSuite) TestResolve(c *gc.C) {
	w, _ := s.newWorld(c)
	alice, err := w.lookupObject("alice")
	c.Assert(err, jc.ErrorIsNil)

	resolved, err := w.resolve(map[string]any{
		"lead":  map[string]any{refKey: "alice"},
		"names": []any{"x", map[string]any{refKey: "alice"}},
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(resolved, jc.DeepEquals, map[string]any{
		"lead":  alice,
		"names": []any{"x", alice},
	})
}

func (s *scriptSuite) TestResolveErrors(c *gc.C) {
	w, _ := s.newWorld(c)

	_, err := w.resolve(map[string]any{refKey: "carol"})
	c.Check(err, jc.ErrorIs, errors.NotFound)

	_, err = w.resolve(map[string]any{refKey: "alice", "age": 3})
	c.Check(err, jc.ErrorIs, errors.NotValid)

	_, err = w.resolve([]any{map[string]any{refKey: 42}})
	c.Check(err, jc.ErrorIs, errors.NotValid)
}

func (s *scriptSuite) TestRunTransactions(c *gc.C) {
	w, script := s.newWorld(c)
	manager := s.newManager(c)

	birthday, err := w.runTransaction(context.Background(), manager, script.Transactions[0])
	c.Assert(err, jc.ErrorIsNil)
	c.Check(birthday.Name, gc.Equals, "birthday")
	c.Check(birthday.Version, gc.Equals, int64(1))
	c.Check(birthday.Outcome, gc.Equals, OutcomeCommitted)
	c.Check(birthday.Changes, jc.DeepEquals, []ChangeResult{{
		Owner:    "alice",
		Property: "age",
		Kind:     "value",
		Old:      int64(30),
		New:      int64(31),
	}, {
		Owner:    "alice",
		Property: "nicknames",
		Kind:     "list",
		Old:      []any{},
		New:      []any{"ali", "al"},
	}})

	hire, err := w.runTransaction(context.Background(), manager, script.Transactions[1])
	c.Assert(err, jc.ErrorIsNil)
	c.Check(hire.Outcome, gc.Equals, OutcomeRolledBack)
	c.Check(hire.Changes, gc.HasLen, 0)

	broken, err := w.runTransaction(context.Background(), manager, script.Transactions[2])
	c.Assert(err, jc.ErrorIsNil)
	c.Check(broken.Outcome, gc.Equals, OutcomeFailed)
	c.Check(broken.Error, gc.Matches, `step 2 \(set\): .*"height".*`)

	objects := w.snapshot()
	c.Check(objects["alice"], jc.DeepEquals, map[string]any{
		"name":      "alice",
		"age":       int64(31),
		"nicknames": []any{"ali", "al"},
	})
	c.Check(objects["devs"].(map[string]any)["members"], gc.HasLen, 1)
	c.Check(manager.LastVersion(), gc.Equals, int64(3))
}

func (s *scriptSuite) TestListOperations(c *gc.C) {
	w, _ := s.newWorld(c)
	manager := s.newManager(c)

	run := func(steps ...StepSpec) {
		result, err := w.runTransaction(context.Background(), manager, TransactionSpec{Steps: steps})
		c.Assert(err, jc.ErrorIsNil)
		c.Assert(result.Outcome, gc.Equals, OutcomeCommitted, gc.Commentf("%s", result.Error))
	}
	nicknames := func() any {
		bob, err := w.lookupObject("bob")
		c.Assert(err, jc.ErrorIsNil)
		list, err := bob.List("nicknames")
		c.Assert(err, jc.ErrorIsNil)
		return list.ToSpec()
	}

	run(StepSpec{Op: "add", Object: "bob", Property: "nicknames", Value: []any{"rob", "bert"}})
	c.Check(nicknames(), jc.DeepEquals, []any{"bobby", "rob", "bert"})

	run(StepSpec{Op: "insert", Object: "bob", Property: "nicknames", Value: "b", Index: 1})
	c.Check(nicknames(), jc.DeepEquals, []any{"bobby", "b", "rob", "bert"})

	run(StepSpec{Op: "sort", Object: "bob", Property: "nicknames"})
	c.Check(nicknames(), jc.DeepEquals, []any{"b", "bert", "bobby", "rob"})

	run(StepSpec{Op: "remove-at", Object: "bob", Property: "nicknames", Index: 1, Count: 2})
	c.Check(nicknames(), jc.DeepEquals, []any{"b", "rob"})

	run(StepSpec{Op: "remove", Object: "bob", Property: "nicknames", Value: "rob"})
	c.Check(nicknames(), jc.DeepEquals, []any{"b"})

	run(StepSpec{Op: "clear", Object: "bob", Property: "nicknames"})
	c.Check(nicknames(), jc.DeepEquals, []any{})
}

func (s *scriptSuite) TestApplyErrors(c *gc.C) {
	w, _ := s.newWorld(c)
	txn := s.newManager(c).Begin()

	err := w.apply(txn, StepSpec{Op: "set", Object: "carol", Property: "age", Value: 1})
	c.Check(err, jc.ErrorIs, errors.NotFound)

	err = w.apply(txn, StepSpec{Op: "explode", Object: "bob", Property: "nicknames"})
	c.Check(err, jc.ErrorIs, errors.NotValid)

	err = w.apply(txn, StepSpec{Op: "add", Object: "bob", Property: "age", Value: 1})
	c.Check(err, jc.ErrorIs, changeset.TypeMismatch)
	c.Check(err, gc.ErrorMatches, `.*property "age" is not a list: type mismatch`)

	c.Check(txn.HasChanges(), jc.IsFalse)
}

func (s *scriptSuite) TestMembersByReference(c *gc.C) {
	w, _ := s.newWorld(c)
	manager := s.newManager(c)

	result, err := w.runTransaction(context.Background(), manager, TransactionSpec{
		Steps: []StepSpec{{
			Op:       "add",
			Object:   "devs",
			Property: "members",
			Value:    []any{map[string]any{refKey: "bob"}},
		}},
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(result.Outcome, gc.Equals, OutcomeCommitted)

	devs, err := w.lookupObject("devs")
	c.Assert(err, jc.ErrorIsNil)
	members, err := devs.List("members")
	c.Assert(err, jc.ErrorIsNil)
	keys := make([]string, members.Len())
	for i := range keys {
		keys[i] = members.At(i).Key()
	}
	c.Check(keys, jc.DeepEquals, []string{"alice", "bob"})

	bob := members.At(1).(*value.Complex)
	c.Check(bob.ID(), gc.Equals, "bob")
}
