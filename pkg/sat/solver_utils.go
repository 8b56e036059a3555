package sat

import (
	"log"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var statusLines = map[string]Status{
	"OPTIMUM FOUND": Optimal,
	"SATISFIABLE":   Feasible,
	"UNSATISFIABLE": Infeasible,
	"UNKNOWN":       Unknown,
}

// parseOPBOutput reads the competition output format. Counters printed as comments ("c conflicts 12", "c decisions 40") are picked up when present
func parseOPBOutput(solverOutput string, variables uint64) Solution {
	lines := lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
		return len(line) > 1 && line[1] == ' '
	})

	solution := Solution{Status: Unknown}
	if statusLine, ok := lo.Find(lines, func(line string) bool { return line[0] == 's' }); ok {
		solution.Status = statusLines[strings.TrimSpace(statusLine[2:])]
	}

	values := lo.Reduce(
		lo.Filter(lines, func(line string, _ int) bool { return line[0] == 'v' }),
		func(values []string, line string, _ int) []string {
			return append(values, strings.Fields(line[2:])...)
		},
		[]string{},
	)

	if solution.Solved() {
		solution.Values = make([]bool, variables)
		for _, valueStr := range values {
			negated := strings.HasPrefix(valueStr, "-")
			variable, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(valueStr, "-"), "x"), 10, 64)
			if err != nil {
				log.Panicf("invalid literal in solver output: %v", err)
			}
			if variable >= 1 && uint64(variable) <= variables {
				solution.Values[variable-1] = !negated
			}
		}
	}

	for _, line := range lo.Filter(lines, func(line string, _ int) bool { return line[0] == 'c' }) {
		fields := strings.Fields(strings.ToLower(line[2:]))
		if len(fields) != 2 {
			continue
		}
		counter, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "conflicts":
			solution.Stats.Conflicts = counter
		case "decisions", "branches":
			solution.Stats.Branches = counter
		}
	}

	return solution
}
