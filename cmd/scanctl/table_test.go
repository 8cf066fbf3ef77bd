package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scanvault/api/internal/model"
)

func TestRenderJobsTable(t *testing.T) {
	completed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out := renderJobsTable([]model.JobRecord{
		{ID: "abc", Title: "Cat", Status: model.JobStatusCompleted, SubmittedAt: completed.Add(-time.Hour), CompletedAt: &completed},
		{ID: "xyz", Title: "Dog", Status: model.JobStatusQueuing},
	})

	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "xyz")
	assert.Contains(t, out, "Total")
	assert.Equal(t, 2, strings.Count(out, "completed")+strings.Count(out, "queuing"))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "-", formatTimestamp(time.Time{}))
	assert.Equal(t, "-", formatOptional(nil))
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{{"jobs", "list"}, {"jobs", "get"}, {"jobs", "poll"}, {"jobs", "import"}, {"sweep"}} {
		cmd, _, err := root.Find(path)
		assert.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
