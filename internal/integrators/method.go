package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/pbpksim/internal/dynamo"
)

// Method names one member of the enumerated solver set.
type Method string

const (
	RungeKutta         Method = "Runge-Kutta"
	RungeKuttaFehlberg Method = "Runge-Kutta-Fehlberg"
	CashKarp           Method = "Cash-Karp"
	AB1                Method = "AB1"
	AB2                Method = "AB2"
	AB3                Method = "AB3"
	AB4                Method = "AB4"
	AM1                Method = "AM1"
	AM2                Method = "AM2"
	AM3                Method = "AM3"
	AM4                Method = "AM4"
	BD1                Method = "BD1"
	BD2                Method = "BD2"
	BD3                Method = "BD3"
	BD4                Method = "BD4"
)

// DefaultMethod is A-stable, which suits rate constants spanning
// several orders of magnitude.
const DefaultMethod = BD2

type family int

const (
	familyRK family = iota
	familyEmbedded
	familyAB
	familyAM
	familyBDF
)

type methodInfo struct {
	family family
	order  int
}

var methods = map[Method]methodInfo{
	RungeKutta:         {familyRK, 4},
	RungeKuttaFehlberg: {familyEmbedded, 5},
	CashKarp:           {familyEmbedded, 5},
	AB1:                {familyAB, 1},
	AB2:                {familyAB, 2},
	AB3:                {familyAB, 3},
	AB4:                {familyAB, 4},
	AM1:                {familyAM, 1},
	AM2:                {familyAM, 2},
	AM3:                {familyAM, 3},
	AM4:                {familyAM, 4},
	BD1:                {familyBDF, 1},
	BD2:                {familyBDF, 2},
	BD3:                {familyBDF, 3},
	BD4:                {familyBDF, 4},
}

// ParseMethod validates name against the enumerated set.
func ParseMethod(name string) (Method, error) {
	m := Method(name)
	if _, ok := methods[m]; !ok {
		return "", fmt.Errorf("%w: %q (valid solvers: %v)", dynamo.ErrUnsupportedSolver, name, Methods())
	}
	return m, nil
}

// Methods lists every supported method name in sorted order.
func Methods() []Method {
	out := make([]Method, 0, len(methods))
	for m := range methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m Method) String() string { return string(m) }

func (m Method) Valid() bool {
	_, ok := methods[m]
	return ok
}

// Order is the convergence order of the method.
func (m Method) Order() int { return methods[m].order }

// Implicit reports whether each step solves a nonlinear system.
func (m Method) Implicit() bool {
	f := methods[m].family
	return f == familyAM || f == familyBDF
}

// Adaptive reports whether the method controls its own step size.
func (m Method) Adaptive() bool { return methods[m].family == familyEmbedded }
