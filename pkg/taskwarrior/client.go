package taskwarrior

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/util"
)

// DueLayout is how Taskwarrior due dates are written into dayplan tasks.
const DueLayout = "2006-01-02"

type Client struct {
	// Binary is the task executable, "task" by default.
	Binary string
}

func NewClient() *Client {
	return &Client{Binary: "task"}
}

// GetTasks runs `task <filter> export` with hooks disabled.
func (c *Client) GetTasks(ctx context.Context, filter []string) ([]Task, error) {
	args := append(append([]string{}, filter...), "export", "rc.hooks=0")
	cmd := exec.CommandContext(ctx, c.Binary, args...)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("taskwarrior command failed: exit code %d, %s, stderr: %s",
				exitErr.ExitCode(), err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("taskwarrior command failed: %w", err)
	}

	var tasks []Task
	if err := json.Unmarshal(output, &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal taskwarrior output: %w", err)
	}
	return tasks, nil
}

// ParseTasks reads an export array or a stream of JSON objects from r.
func (c *Client) ParseTasks(r io.Reader) ([]Task, error) {
	decoder := json.NewDecoder(r)
	var tasks []Task
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		if len(raw) > 0 && raw[0] == '[' {
			var batch []Task
			if err := json.Unmarshal(raw, &batch); err != nil {
				return nil, fmt.Errorf("failed to decode task json: %w", err)
			}
			tasks = append(tasks, batch...)
			continue
		}
		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ToTasks converts Taskwarrior records into top-level dayplan tasks.
// Deleted records and recurrence templates are dropped.
func ToTasks(twTasks []Task) []*model.Task {
	var out []*model.Task
	for _, tw := range twTasks {
		if tw.Status == DELETED || tw.Status == RECURRING {
			continue
		}
		out = append(out, ToTask(tw))
	}
	return out
}

// ToTask maps a single record. The project becomes the category.
func ToTask(tw Task) *model.Task {
	category := tw.Project
	if category == "" {
		category = model.DefaultCategory
	}

	var estimate model.Minutes
	if d, err := util.ParseDuration(tw.Est); err == nil {
		estimate = model.Minutes(d / time.Minute)
	}

	due := ""
	if tw.Due != nil && !tw.Due.IsZero() {
		due = tw.Due.Local().Format(DueLayout)
	}

	t := model.NewTask(tw.Description, category, estimate, due)
	t.Completed = tw.Status == COMPLETED
	return t
}
