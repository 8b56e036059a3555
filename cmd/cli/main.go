package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/limaJavier/roomassign/pkg/forecast"
	"github.com/limaJavier/roomassign/pkg/model"
	"github.com/limaJavier/roomassign/pkg/sat"
)

// Exit codes follow the SAT competition convention
const (
	exitAssigned     = 10
	exitInvalid      = 15
	exitInfeasible   = 20
	defaultTimeLimit = 30 * time.Second
)

var validSolvers = []string{"gophersat", "opb"}

// cliConfig is read from config.json next to the executable, when present
type cliConfig struct {
	SolverPath string   `mapstructure:"solver_path"`
	SolverArgs []string `mapstructure:"solver_args"`
	ModelPath  string   `mapstructure:"model_path"`
	Horizon    string   `mapstructure:"horizon"`
}

// defaultSensors stands in for the sensor database: every room reads the default conditions
type defaultSensors struct{}

func (defaultSensors) LatestRoomData(ctx context.Context, roomId string, before time.Time) (forecast.Reading, error) {
	return forecast.DefaultReading(), nil
}

func main() {
	// Define arguments
	solverPtr := flag.String("solver", "gophersat", `Pseudo-boolean solver to use. Allowed values are:
- "gophersat" (in-process, the default) and
- "opb" (external solver reading OPB files; its path is taken from config.json)`)
	timeLimitPtr := flag.Duration("time-limit", defaultTimeLimit, "Wall-clock limit of the solver, where 30s is the default")
	filePathPtr := flag.String("file", "", "Path to the input bundle (rooms, lessons and preferences)")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	modelPathPtr := flag.String("model", "", "Path to the temperature model; overrides config.json. Without a model every room is scored at the default temperature")
	verbosePtr := flag.Bool("verbose", false, "Log the optimization steps to the Standard Error")
	flag.Parse()
	solverStr := strings.ToLower(*solverPtr)
	filePath := *filePathPtr
	outFile := *outFilePathPtr

	// Validate arguments
	if !slices.Contains(validSolvers, solverStr) {
		log.Fatalf("%v is not a valid solver", solverStr)
	} else if filePath == "" {
		log.Fatal("an input file must be specified")
	}

	config := loadConfig()
	if *modelPathPtr != "" {
		config.ModelPath = *modelPathPtr
	}

	logger := zap.NewNop()
	if *verbosePtr {
		logger = lo.Must(zap.NewDevelopment())
	}
	defer logger.Sync() //nolint:errcheck

	// Extract input
	input, err := model.InputFromJson(filePath)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	// Initialize engines
	var solver sat.Solver
	switch solverStr {
	case "opb":
		if config.SolverPath == "" {
			log.Fatal("the opb solver requires solver_path in config.json")
		}
		solver = sat.NewOPBSolver(config.SolverPath, *timeLimitPtr, config.SolverArgs...)
	default:
		solver = sat.NewGophersatSolver(*timeLimitPtr)
	}

	options := model.Options{Logger: logger}
	if config.Horizon != "" {
		options.Horizon = lo.Must(time.ParseDuration(config.Horizon))
	}
	if config.ModelPath != "" {
		options.Predictor = forecast.NewPredictor(forecast.NewFileLoader(config.ModelPath), defaultSensors{}, forecast.Options{Logger: logger})
	}
	optimizer := model.NewOptimizer(solver, options)

	// Optimize
	result, err := optimizer.Optimize(context.Background(), input)
	if err != nil {
		log.Fatalf("an error occurred during room optimization: %v", err)
	}

	// Verify assignment correctness
	if result.Status.Succeeded() {
		if err := optimizer.Verify(input, result); err != nil {
			fmt.Fprintf(os.Stderr, "invalid assignment: %v\n", err)
			os.Exit(exitInvalid)
		}
	}

	// Marshal output into json
	resultJson, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("an error occurred while building output json: %v", err)
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if outFile == "" {
		fmt.Println(string(resultJson))
	} else {
		err := os.WriteFile(outFile, resultJson, 0666)
		if err != nil {
			log.Fatalf("an error occurred while writing to the output file: %v", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Status: %v\n", result.Status)
	fmt.Fprintf(os.Stderr, "Assigned: %v/%v\n", len(result.Assignments), len(input.Lessons))
	if result.Status.Succeeded() || result.Status == model.StatusEmpty {
		os.Exit(exitAssigned)
	}
	os.Exit(exitInfeasible)
}

func loadConfig() cliConfig {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("cannot determine executable path: %v", err)
	}

	bytes, err := os.ReadFile(path.Join(path.Dir(execPath), "config.json"))
	if os.IsNotExist(err) {
		return cliConfig{}
	} else if err != nil {
		log.Fatalf("cannot read config.json: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(bytes, &raw); err != nil {
		log.Fatalf("cannot parse config.json: %v", err)
	}
	var config cliConfig
	if err := mapstructure.Decode(raw, &config); err != nil {
		log.Fatalf("cannot decode config.json: %v", err)
	}
	return config
}
