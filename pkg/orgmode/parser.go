package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrisonrobin/dayplan/pkg/model"
	"github.com/harrisonrobin/dayplan/pkg/util"
)

var (
	headlineRegex = regexp.MustCompile(`^(\*+)\s+(TODO|DONE)\s+(?:\[#([A-Z])\]\s*)?(.*?)(?:\s+:([\w@:]+):)?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})`)
	effortRegex   = regexp.MustCompile(`^:EFFORT:\s+(\S+)`)
)

func parseFile(filePath string) ([]*model.Task, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// ParseFiles parses multiple Org-mode files and concatenates their tasks.
func ParseFiles(filePaths []string) ([]*model.Task, error) {
	var allTasks []*model.Task
	for _, filePath := range filePaths {
		tasks, err := parseFile(filePath)
		if err != nil {
			return nil, err
		}
		allTasks = append(allTasks, tasks...)
	}
	return allTasks, nil
}

// Parse reads TODO/DONE headlines. Level-one headlines become tasks and
// deeper headlines become subtasks of the closest level-one task above them.
// The first tag is the category, DEADLINE gives the due date and the
// :EFFORT: property (H:MM or minutes) gives the estimate.
func Parse(r io.Reader) ([]*model.Task, error) {
	scanner := bufio.NewScanner(r)
	var tasks []*model.Task
	var parent, current *model.Task

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if matches := headlineRegex.FindStringSubmatch(line); matches != nil {
			level := len(matches[1])
			task := model.NewTask(strings.TrimSpace(matches[4]), model.DefaultCategory, 0, "")
			task.Completed = matches[2] == "DONE"
			if tags := strings.Trim(matches[5], ":"); tags != "" {
				task.Category = strings.Split(tags, ":")[0]
			}

			if level == 1 || parent == nil {
				tasks = append(tasks, task)
				parent = task
			} else {
				if task.Category == model.DefaultCategory {
					task.Category = parent.Category
				}
				parent.AddSubtask(task)
			}
			current = task
			continue
		}

		if strings.HasPrefix(line, "*") {
			// A headline without a TODO keyword ends the current task.
			current = nil
			if strings.HasPrefix(line, "* ") {
				parent = nil
			}
			continue
		}

		if current == nil {
			continue
		}
		if matches := deadlineRegex.FindStringSubmatch(line); matches != nil {
			due := matches[1]
			current.DueDate = &due
		}
		if matches := effortRegex.FindStringSubmatch(line); matches != nil {
			if minutes, ok := parseEffort(matches[1]); ok {
				current.EstimatedTime = minutes
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// parseEffort reads Org effort values: "1:30", "0:45" or plain minutes.
func parseEffort(s string) (model.Minutes, bool) {
	if strings.Contains(s, ":") {
		minutes, err := util.ParseClock(s)
		if err != nil {
			return 0, false
		}
		return model.Minutes(minutes), true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return model.Minutes(n), true
}

// FilterByCategory keeps the tasks in the given category.
func FilterByCategory(tasks []*model.Task, category string) []*model.Task {
	var filtered []*model.Task
	for _, task := range tasks {
		if task.Category == category {
			filtered = append(filtered, task)
		}
	}
	return filtered
}
