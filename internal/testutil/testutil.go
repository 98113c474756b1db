// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/nbflow/internal/channel"
	"github.com/specialistvlad/nbflow/internal/protocol"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log and report output.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// NotebookCell is a cell in a notebook file written by WriteNotebook.
type NotebookCell struct {
	ID     string `json:"id"`
	Type   string `json:"cell_type"`
	Source string `json:"source"`
}

// WriteNotebook writes an nbformat 4 file with cells into dir and returns
// its path.
func WriteNotebook(t *testing.T, dir string, cells ...NotebookCell) string {
	t.Helper()
	for i := range cells {
		if cells[i].Type == "" {
			cells[i].Type = "code"
		}
	}
	data, err := json.Marshal(map[string]any{
		"nbformat":       4,
		"nbformat_minor": 5,
		"metadata":       map[string]any{},
		"cells":          cells,
	})
	require.NoError(t, err)

	path := filepath.Join(dir, "notebook.ipynb")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// Responder makes pipe answer every classification request with establish
// followed by classify(request). Replies are delivered from a new goroutine
// so the sender's locks are released first.
func Responder(pipe *channel.Pipe, classify func(protocol.ComputeExecSchedule) *protocol.Inbound) {
	pipe.OnSend(func(msg protocol.Outbound) {
		req, ok := msg.(protocol.ComputeExecSchedule)
		if !ok {
			return
		}
		go func() {
			pipe.Deliver(&protocol.Inbound{Type: protocol.KindEstablish})
			if reply := classify(req); reply != nil {
				pipe.Deliver(reply)
			}
		}()
	})
}
