package query

import "time"

// Expr is a parsed filter: And and Or nodes over Match, Words, Compare and
// Between leaves.
type Expr interface {
	node()
}

type And struct{ Left, Right Expr }

type Or struct{ Left, Right Expr }

// Match is property:value. With Wildcard set, Value is a LIKE pattern: the
// outer '*' are dropped and inner ones become '%'.
type Match struct {
	Property string
	Value    string
	Wildcard bool
}

// Words searches the fulltext buckets.
type Words struct {
	Search string
}

// Compare is property followed by >, >=, < or <= and a bound.
type Compare struct {
	Property string
	Op       Op
	Bound    Bound
}

// Between is property:lo..hi, inclusive at both ends. Lo and Hi are both
// numbers or both dates.
type Between struct {
	Property string
	Lo, Hi   Bound
}

func (And) node()     {}
func (Or) node()      {}
func (Match) node()   {}
func (Words) node()   {}
func (Compare) node() {}
func (Between) node() {}

type Op int

const (
	Greater Op = iota
	GreaterOrEqual
	Less
	LessOrEqual
)

func (op Op) String() string {
	switch op {
	case Greater:
		return ">"
	case GreaterOrEqual:
		return ">="
	case Less:
		return "<"
	case LessOrEqual:
		return "<="
	}
	return "?"
}

// Bound is the value side of a comparison. It resolves to a float64 or a
// time.Time.
type Bound interface {
	resolve(now time.Time) any
}

// Number keeps the literal as written next to its value.
type Number struct {
	Value float64
	Text  string
}

type Date struct {
	At time.Time
}

// Ago is a point in the past relative to the query time, so created>7d
// reads "created within the last seven days".
type Ago struct {
	Amount int
	Unit   Unit
}

type Unit int

const (
	Hours Unit = iota
	Days
	Weeks
	Months
	Years
)

func (n Number) resolve(time.Time) any { return n.Value }

func (d Date) resolve(time.Time) any { return d.At }

// Months and years follow the calendar.
func (a Ago) resolve(now time.Time) any {
	switch a.Unit {
	case Hours:
		return now.Add(-time.Duration(a.Amount) * time.Hour)
	case Weeks:
		return now.AddDate(0, 0, -7*a.Amount)
	case Months:
		return now.AddDate(0, -a.Amount, 0)
	case Years:
		return now.AddDate(-a.Amount, 0, 0)
	}
	return now.AddDate(0, 0, -a.Amount)
}
