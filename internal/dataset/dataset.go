// Package dataset provides an engine-neutral query builder. A Dataset
// describes a query; a Dialect turns it into SQL for one engine.
package dataset

import "slices"

// Lock is a row-locking request on a SELECT.
type Lock int

const (
	LockNone Lock = iota
	LockForUpdate
	LockForShare
)

// JoinKind selects the join type.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER JOIN"
	LeftJoin  JoinKind = "LEFT JOIN"
)

// Join is one joined source.
type Join struct {
	Kind  JoinKind
	Table string
	On    Expression
}

// Values maps column names to the values written by an INSERT or UPDATE.
type Values map[string]any

// Dataset is an immutable query description. Every builder method returns a
// modified copy and leaves the receiver untouched.
type Dataset struct {
	from    []string
	selects []Expression
	where   Expression
	joins   []Join
	order   []Expression
	limit   int
	offset  int
	lock    Lock
}

// From starts a dataset over one or more source tables.
func From(tables ...string) *Dataset {
	return &Dataset{from: slices.Clone(tables), limit: -1, offset: -1}
}

func (d *Dataset) clone() *Dataset {
	c := *d
	c.from = slices.Clone(d.from)
	c.selects = slices.Clone(d.selects)
	c.joins = slices.Clone(d.joins)
	c.order = slices.Clone(d.order)
	return &c
}

// Select replaces the select list.
func (d *Dataset) Select(exprs ...Expression) *Dataset {
	c := d.clone()
	c.selects = slices.Clone(exprs)
	return c
}

// Where adds a condition; repeated calls are ANDed together.
func (d *Dataset) Where(cond Expression) *Dataset {
	c := d.clone()
	if c.where == nil {
		c.where = cond
	} else {
		c.where = And(c.where, cond)
	}
	return c
}

// Join adds an inner join.
func (d *Dataset) Join(table string, on Expression) *Dataset {
	return d.addJoin(InnerJoin, table, on)
}

// LeftJoin adds a left outer join.
func (d *Dataset) LeftJoin(table string, on Expression) *Dataset {
	return d.addJoin(LeftJoin, table, on)
}

func (d *Dataset) addJoin(kind JoinKind, table string, on Expression) *Dataset {
	c := d.clone()
	c.joins = append(c.joins, Join{Kind: kind, Table: table, On: on})
	return c
}

// Order replaces the ORDER BY list. Bare expressions sort ascending.
func (d *Dataset) Order(exprs ...Expression) *Dataset {
	c := d.clone()
	c.order = slices.Clone(exprs)
	return c
}

// Limit caps the number of rows returned. A negative n removes the cap.
func (d *Dataset) Limit(n int) *Dataset {
	c := d.clone()
	c.limit = n
	return c
}

// Offset skips the first n rows. A negative n removes the offset.
func (d *Dataset) Offset(n int) *Dataset {
	c := d.clone()
	c.offset = n
	return c
}

// ForUpdate requests row locks on the selected rows. Dialects without row
// locking ignore it.
func (d *Dataset) ForUpdate() *Dataset {
	c := d.clone()
	c.lock = LockForUpdate
	return c
}

// ForShare requests shared row locks.
func (d *Dataset) ForShare() *Dataset {
	c := d.clone()
	c.lock = LockForShare
	return c
}

// From returns the FROM tables.
func (d *Dataset) From() []string { return slices.Clone(d.from) }

// Joins returns the joined sources.
func (d *Dataset) Joins() []Join { return slices.Clone(d.joins) }

// Sources returns every table the dataset reads: FROM tables then joined tables.
func (d *Dataset) Sources() []string {
	out := slices.Clone(d.from)
	for _, j := range d.joins {
		out = append(out, j.Table)
	}
	return out
}

// FirstSource returns the first FROM table, or "" for a dataset with no source.
func (d *Dataset) FirstSource() string {
	if len(d.from) == 0 {
		return ""
	}
	return d.from[0]
}

// Selects returns the select list.
func (d *Dataset) Selects() []Expression { return slices.Clone(d.selects) }

// SelectsAll reports whether the query returns every column of its source:
// no select list, or a single unqualified star.
func (d *Dataset) SelectsAll() bool {
	switch len(d.selects) {
	case 0:
		return true
	case 1:
		s, ok := d.selects[0].(Star)
		return ok && s.Table == ""
	}
	return false
}

// Lock returns the requested row lock.
func (d *Dataset) Lock() Lock { return d.lock }
