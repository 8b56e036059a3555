package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/limaJavier/roomassign/pkg/model"

	"github.com/samber/lo"
)

const (
	executablePath         = "../../bin/roomassign"
	bundleDirectory        = "../../test/bundles/"
	timeLimit              = 60 * time.Second
	MB             float32 = 1024 * 1024
)

type SolverType int

const (
	gophersat SolverType = iota
	opb
)

type ResultType int

const (
	assigned ResultType = iota
	infeasible
	invalid
)

var (
	solverTypes = map[SolverType]string{
		gophersat: "gophersat",
		opb:       "opb",
	}
	resultTypes = map[ResultType]string{
		assigned:   "assigned",
		infeasible: "infeasible",
		invalid:    "invalid",
	}
)

type TestMetadata struct {
	Name        string
	Rooms       int
	Lessons     int
	Overlapping int // Pairs of lessons sharing some instant
}

type BenchmarkResult struct {
	Solver        SolverType
	Test          TestMetadata
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
}

func main() {
	tests := getTests()
	solvers := getSolvers()
	results := make([]BenchmarkResult, 0, len(tests)*len(solvers))

	for _, test := range tests {
		for _, solver := range solvers {
			fmt.Printf("Benchmarking bundle \"%v\" with solver \"%v\"\n", test.Name, solverTypes[solver])

			duration, maxMemory, cpuPercentage, result := measure(solver, test.Name)

			results = append(results, BenchmarkResult{
				Solver:        solver,
				Test:          test,
				Duration:      duration,
				Memory:        maxMemory,
				CpuPercentage: cpuPercentage,
				Result:        result,
			})
		}
	}

	toCsv(results)
}

func getTests() []TestMetadata {
	bundleFiles, err := os.ReadDir(bundleDirectory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	tests := make([]TestMetadata, 0, len(bundleFiles))
	for _, file := range bundleFiles {
		filename := bundleDirectory + file.Name()
		input, err := model.InputFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		tests = append(tests, TestMetadata{
			Name:        filename,
			Rooms:       len(input.Rooms),
			Lessons:     len(input.Lessons),
			Overlapping: overlappingPairs(input.Lessons),
		})
	}
	return tests
}

func overlappingPairs(lessons []model.Lesson) int {
	count := 0
	for i := range lessons {
		count += lo.CountBy(lessons[i+1:], func(other model.Lesson) bool { return lessons[i].Overlaps(other) })
	}
	return count
}

func getSolvers() []SolverType {
	return []SolverType{gophersat, opb}
}

func measure(solver SolverType, testFile string) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, "-solver", solverTypes[solver], "-time-limit", timeLimit.String(), "-file", testFile, "-out", os.DevNull)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case 10:
		result = assigned
	case 20:
		result = infeasible
	case 15:
		result = invalid
	default:
		log.Fatalf("an error occurred during the execution \"roomassign\" at bundle \"%v\" using solver \"%v\": %v\n", testFile, solverTypes[solver], stdErr.String())
	}
	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create("benchmark_results.csv")
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Solver", "Bundle", "Rooms", "Lessons", "Overlapping", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			solverTypes[result.Solver],
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Rooms),
			fmt.Sprintf("%d", result.Test.Lessons),
			fmt.Sprintf("%d", result.Test.Overlapping),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

// parseDuration converts a GNU time "h:mm:ss.hh" or "m:ss.hh" wall clock into milliseconds
func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsParts := strings.Split(parts[len(parts)-1], ".")
	seconds := lo.Must(strconv.Atoi(secondsParts[0]))
	hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))

	var minutes, hours int
	switch len(parts) {
	case 3:
		hours = lo.Must(strconv.Atoi(parts[0]))
		minutes = lo.Must(strconv.Atoi(parts[1]))
	case 2:
		minutes = lo.Must(strconv.Atoi(parts[0]))
	default:
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
}

// GNU time reports kilobytes
func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) * 1024 / MB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = strings.TrimSuffix(percentageStr, "%")
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
