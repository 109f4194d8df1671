package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"lantern/internal/deployapi"
)

// fakeDeployService is an in-memory deployment API backing CLI tests. Event
// batches are consumed one per fetch; an exhausted group returns an empty
// batch that echoes the request cursor.
type fakeDeployService struct {
	mu        sync.Mutex
	status    deployapi.Status
	lifecycle []deployapi.LifecycleEvent
	groups    []string
	batches   map[string][]deployapi.Batch
}

func (f *fakeDeployService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(path, "/v1/deployments/"):
		id := strings.TrimPrefix(path, "/v1/deployments/")
		_ = json.NewEncoder(w).Encode(deployapi.Deployment{
			ID:        id,
			Status:    f.status,
			Lifecycle: f.lifecycle,
		})
	case path == "/v1/groups":
		prefix := r.URL.Query().Get("prefix")
		var names []string
		for _, name := range f.groups {
			if prefix == "" || strings.HasPrefix(name, prefix) {
				names = append(names, name)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string][]string{"groups": names})
	case strings.HasPrefix(path, "/v1/groups/") && strings.HasSuffix(path, "/events"):
		group := strings.TrimSuffix(strings.TrimPrefix(path, "/v1/groups/"), "/events")
		queue := f.batches[group]
		var batch deployapi.Batch
		if len(queue) > 0 {
			batch = queue[0]
			f.batches[group] = queue[1:]
		} else {
			batch = deployapi.Batch{NextCursor: r.URL.Query().Get("cursor")}
		}
		_ = json.NewEncoder(w).Encode(batch)
	default:
		http.NotFound(w, r)
	}
}

type cliTestEnv struct {
	service    *fakeDeployService
	server     *httptest.Server
	configPath string
	recordDir  string
}

func setupCLITestEnv(t *testing.T, service *fakeDeployService) *cliTestEnv {
	t.Helper()

	server := httptest.NewServer(service)
	t.Cleanup(server.Close)

	base := t.TempDir()
	recordDir := filepath.Join(base, "records")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`log_level = "error"

[api]
base_url = %q
token = "test-token"

[watch]
poll_interval_seconds = 1

[record]
dir = %q
`, server.URL, recordDir)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	return &cliTestEnv{
		service:    service,
		server:     server,
		configPath: configPath,
		recordDir:  recordDir,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
