// Package file provides file-based persistence for workflows and execution
// records. It exists for local development and tests; the conditional insert
// uses O_EXCL, which is atomic only within one machine.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/atelierhq/pulse/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory tree:
//
//	<root>/workflows/<id>.json
//	<root>/executions/<workflow id>/<escaped dedup key>.json
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts both a plain path and a file:// URL.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(cleanRoot),
		executionRepo: NewExecutionRepository(cleanRoot),
	}
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file persistence there is nothing
// to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
