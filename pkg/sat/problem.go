package sat

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Constraint is a linear pseudo-boolean constraint: sum(Weights[i] * Literals[i]) >= AtLeast.
// Literals follow the DIMACS convention (variable v is v, its negation is -v). A nil Weights slice means every weight is 1
type Constraint struct {
	Literals []int64
	Weights  []int64
	AtLeast  int64
}

// Term is a single objective coefficient attached to a (positive) variable
type Term struct {
	Variable    int64
	Coefficient int64
}

// Problem is a pseudo-boolean optimization instance whose objective is maximized
type Problem struct {
	Variables   uint64
	Constraints []Constraint
	Objective   []Term
}

// Forbid forces variable to be false
func Forbid(variable int64) Constraint {
	return Constraint{Literals: []int64{-variable}, AtLeast: 1}
}

// AtMost states that no more than n of the literals are true
func AtMost(literals []int64, n int64) Constraint {
	// sum(l) <= n  <=>  sum(-l) >= len(l) - n
	negated := lo.Map(literals, func(literal int64, _ int) int64 { return -literal })
	return Constraint{Literals: negated, AtLeast: int64(len(literals)) - n}
}

// AtLeast states that at least n of the literals are true
func AtLeast(literals []int64, n int64) Constraint {
	copied := make([]int64, len(literals))
	copy(copied, literals)
	return Constraint{Literals: copied, AtLeast: n}
}

// ExactlyOne states that one and only one of the literals is true
func ExactlyOne(literals []int64) []Constraint {
	if len(literals) == 1 {
		return []Constraint{AtLeast(literals, 1)}
	}
	return []Constraint{AtLeast(literals, 1), AtMost(literals, 1)}
}

// Trivial reports whether the constraint holds under every assignment
func (c Constraint) Trivial() bool {
	var negative int64
	for i := range c.Literals {
		if w := c.weight(i); w < 0 {
			negative += w
		}
	}
	return c.AtLeast <= negative
}

func (c Constraint) weight(i int) int64 {
	if c.Weights == nil {
		return 1
	}
	return c.Weights[i]
}

// Satisfied reports whether the assignment satisfies the constraint. values is indexed by variable-1
func (c Constraint) Satisfied(values []bool) bool {
	var sum int64
	for i, literal := range c.Literals {
		variable := literal
		if variable < 0 {
			variable = -variable
		}
		value := int(variable-1) < len(values) && values[variable-1]
		if (literal > 0) == value {
			sum += c.weight(i)
		}
	}
	return sum >= c.AtLeast
}

// ToOPB serializes the problem in the OPB format of the pseudo-boolean competitions.
// Negated literals are rewritten as w*~x = w - w*x, and the objective is negated since OPB minimizes
func (p *Problem) ToOPB() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "* #variable= %d #constraint= %d\n", p.Variables, len(p.Constraints))

	if len(p.Objective) > 0 {
		builder.WriteString("min:")
		for _, term := range p.Objective {
			fmt.Fprintf(&builder, " %+d x%d", -term.Coefficient, term.Variable)
		}
		builder.WriteString(" ;\n")
	}

	for _, constraint := range p.Constraints {
		bound := constraint.AtLeast
		for i, literal := range constraint.Literals {
			weight := constraint.weight(i)
			if literal < 0 {
				fmt.Fprintf(&builder, "%+d x%d ", -weight, -literal)
				bound -= weight
			} else {
				fmt.Fprintf(&builder, "%+d x%d ", weight, literal)
			}
		}
		fmt.Fprintf(&builder, ">= %d ;\n", bound)
	}
	return builder.String()
}

// ObjectiveValue evaluates the objective under the assignment
func (p *Problem) ObjectiveValue(values []bool) int64 {
	return lo.SumBy(p.Objective, func(term Term) int64 {
		if int(term.Variable-1) < len(values) && values[term.Variable-1] {
			return term.Coefficient
		}
		return 0
	})
}
