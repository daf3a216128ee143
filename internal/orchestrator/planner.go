package orchestrator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/planforge/planforge/pkg/models"
)

// PlanTasks builds one task per selected agent, preserving the
// selector's order. In sequential mode each task depends on the one
// before it so the executor can feed prior outputs forward.
func PlanTasks(intent models.Intent, agentIDs []string) []models.Task {
	tasks := make([]models.Task, 0, len(agentIDs))
	for i, agentID := range agentIDs {
		task := models.Task{
			ID:          fmt.Sprintf("task-%s", uuid.New().String()[:8]),
			AgentID:     agentID,
			Description: intent.Goal,
		}
		if intent.ExecutionMode == models.ModeSequential && i > 0 {
			task.DependsOn = tasks[i-1].ID
		}
		tasks = append(tasks, task)
	}
	return tasks
}
