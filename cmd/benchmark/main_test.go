package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/limaJavier/roomassign/pkg/model"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, int64(60*1000+1000+120), parseDuration("00:01:01.12"))
	assert.Equal(t, int64(60*60*1000+60*1000+1000+120), parseDuration("01:01:01.12"))
	assert.Equal(t, int64(60*1000+1000+120), parseDuration("1:01.12"))
	assert.Equal(t, int64(120), parseDuration("0:00.12"))
	assert.Equal(t, int64(120), parseDuration("00:00:00.12"))
}

func TestParseTimeLines(t *testing.T) {
	assert.Equal(t, int64(2500), parseDurationLine("	Elapsed (wall clock) time (h:mm:ss or m:ss): 0:02.50"))
	assert.Equal(t, float32(2), parseMemoryLine("	Maximum resident set size (kbytes): 2048"))
	assert.Equal(t, int64(97), parseCpuPercentageLine("	Percent of CPU this job got: 97%"))
}

func TestOverlappingPairs(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	lessons := []model.Lesson{
		{Id: "a", Start: start, End: start.Add(time.Hour)},
		{Id: "b", Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)},
		{Id: "c", Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
	}

	assert.Equal(t, 2, overlappingPairs(lessons))
}
