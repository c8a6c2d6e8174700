// Package evidence persists routing decisions and reflection traces as JSON
// for the presentation layer. The core only writes here; dashboards and
// audits read the files, the core never does.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zen-systems/cascade/pkg/reflection"
	"github.com/zen-systems/cascade/pkg/report"
	"github.com/zen-systems/cascade/pkg/router"
)

// SessionRecord captures session-level metadata.
type SessionRecord struct {
	ID        string         `json:"id"`
	StartedAt time.Time      `json:"started_at"`
	BudgetUSD float64        `json:"budget_usd"`
	Report    *report.Report `json:"report,omitempty"`
}

// Writer writes session evidence to <baseDir>/<sessionID>/.
type Writer struct {
	baseDir    string
	sessionDir string
	decisions  int
}

// NewWriter creates an evidence writer rooted at baseDir/sessionID.
func NewWriter(baseDir, sessionID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	sessionDir := filepath.Join(baseDir, sessionID)
	for _, dir := range []string{
		sessionDir,
		filepath.Join(sessionDir, "decisions"),
		filepath.Join(sessionDir, "traces"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return &Writer{baseDir: baseDir, sessionDir: sessionDir}, nil
}

// SessionDir returns the session directory path.
func (w *Writer) SessionDir() string {
	return w.sessionDir
}

// WriteSession writes session metadata (and the closing report, when set)
// to session.json.
func (w *Writer) WriteSession(record SessionRecord) error {
	return writeJSON(filepath.Join(w.sessionDir, "session.json"), record)
}

// WriteDecision appends a routing decision under decisions/, numbered in
// arrival order.
func (w *Writer) WriteDecision(decision router.Decision) error {
	w.decisions++
	path := filepath.Join(w.sessionDir, "decisions", fmt.Sprintf("%04d.json", w.decisions))
	return writeJSON(path, decision)
}

// WriteTrace writes a reflection trace to traces/<trace-id>.json.
func (w *Writer) WriteTrace(trace *reflection.Trace) error {
	if trace == nil || trace.ID == "" {
		return fmt.Errorf("trace with ID is required")
	}
	path := filepath.Join(w.sessionDir, "traces", trace.ID+".json")
	return writeJSON(path, trace)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
