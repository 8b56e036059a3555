package sat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Grace period between the termination signal and a forced kill, long enough for the solver to print its best model
const terminationGrace = 2 * time.Second

type opbSolver struct {
	path      string
	args      []string
	timeLimit time.Duration
}

// NewOPBSolver drives an external pseudo-boolean optimizer (e.g. roundingsat, clasp, sat4j-pb) that reads an OPB file
// given as its last argument and answers in the competition output format ("s ...", "v ...", "o ..." lines)
func NewOPBSolver(path string, timeLimit time.Duration, args ...string) Solver {
	return &opbSolver{
		path:      path,
		args:      args,
		timeLimit: timeLimit,
	}
}

func (solver *opbSolver) Solve(ctx context.Context, problem *Problem) (Solution, error) {
	start := time.Now()
	opb := problem.ToOPB() // Transform the problem into OPB string format

	// Create a temporary file to hold the OPB content
	tmpFile, err := os.CreateTemp("", "instance-*.opb")
	if err != nil {
		return Solution{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // Ensure the file is removed after execution

	// Write the OPB content to the temporary file
	if _, err := tmpFile.WriteString(opb); err != nil {
		return Solution{}, fmt.Errorf("failed to write OPB to temporary file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Solution{}, fmt.Errorf("failed to close temporary file: %w", err)
	}

	if solver.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, solver.timeLimit)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, solver.path, solver.args...)
	// Set the temporary file as the input for the command
	cmd.Args = append(cmd.Args, tmpFile.Name())
	// Competition solvers answer SIGTERM with their incumbent ("s SATISFIABLE" plus "v" lines)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = terminationGrace

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// Exit-codes 10, 20 and 30 stand for satisfiable, unsatisfiable and optimum found
	err = cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && ctx.Err() == nil {
		if !errors.As(err, &exitErr) || !acceptedExitCode(exitErr.ExitCode()) {
			return Solution{}, fmt.Errorf("an error occurred during %v execution: %w : %v", solver.path, err, stderr.String())
		}
	}

	solution := parseOPBOutput(stdOut.String(), problem.Variables)
	if solution.Solved() {
		solution.Objective = problem.ObjectiveValue(solution.Values)
	}
	solution.Stats.WallTime = time.Since(start)
	return solution, nil
}

func acceptedExitCode(code int) bool {
	return code == 10 || code == 20 || code == 30
}
