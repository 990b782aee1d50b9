// Package file provides file-based persistence: one JSON document per record.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dukex/leadflow/pkg/persistence"
)

const (
	leadsDir      = "leads"
	clientsDir    = "clients"
	activitiesDir = "activities"
	workflowsDir  = "workflows"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
	// mu serializes every read-modify-write across all record kinds, which is
	// what makes lead conversion atomic.
	mu sync.Mutex

	leadRepo     *LeadRepository
	clientRepo   *ClientRepository
	activityRepo *ActivityRepository
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.leadRepo = &LeadRepository{p: p}
	p.clientRepo = &ClientRepository{p: p}
	p.activityRepo = &ActivityRepository{p: p}
	p.workflowRepo = &WorkflowRepository{p: p}

	return p
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) LeadRepository() persistence.LeadRepository {
	return fp.leadRepo
}

func (fp *Persistence) ClientRepository() persistence.ClientRepository {
	return fp.clientRepo
}

func (fp *Persistence) ActivityRepository() persistence.ActivityRepository {
	return fp.activityRepo
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) filePath(kind, id string) string {
	return filepath.Clean(path.Join(fp.root, kind, id+".json"))
}

func (fp *Persistence) write(kind, id string, value any) error {
	err := os.MkdirAll(path.Join(fp.root, kind), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	return os.WriteFile(fp.filePath(kind, id), data, 0600)
}

func (fp *Persistence) remove(kind, id string) error {
	err := os.Remove(fp.filePath(kind, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}

	return nil
}

// nextID returns one more than the largest numeric id stored for kind.
func (fp *Persistence) nextID(kind string) (int64, error) {
	ids, err := fp.ids(kind)
	if err != nil {
		return 0, err
	}

	var maxID int64

	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil && n > maxID {
			maxID = n
		}
	}

	return maxID + 1, nil
}

func (fp *Persistence) ids(kind string) ([]string, error) {
	dir := path.Join(fp.root, kind)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", kind, err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}

// readOne returns nil, nil when the document does not exist.
func readOne[T any](fp *Persistence, kind, id string) (*T, error) {
	body, err := os.ReadFile(fp.filePath(kind, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch %s %s: %w", kind, id, err)
	}

	var value T

	err = json.Unmarshal(body, &value)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return &value, nil
}

func readAll[T any](fp *Persistence, kind string) ([]*T, error) {
	ids, err := fp.ids(kind)
	if err != nil {
		return nil, err
	}

	values := make([]*T, 0, len(ids))

	for _, id := range ids {
		value, err := readOne[T](fp, kind, id)
		if err != nil {
			return nil, err
		}

		if value != nil {
			values = append(values, value)
		}
	}

	return values, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// safeID rejects ids that would resolve outside the kind directory.
func safeID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}
