package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/webpilot-ai/agentmcp/pkg/mcpmgr"
)

type toolCall struct {
	Server string
	Tool   string
	Args   map[string]any
}

// fakeInvoker records connects and tool calls and plays back canned results.
type fakeInvoker struct {
	mu          sync.Mutex
	connected   map[string]bool
	connectErrs []error
	connects    int
	calls       []toolCall
	results     map[string]mcpmgr.ToolCallResult
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{
		connected: make(map[string]bool),
		results:   make(map[string]mcpmgr.ToolCallResult),
	}
}

func (f *fakeInvoker) Connect(ctx context.Context, cfg mcpmgr.ServerConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.connects < len(f.connectErrs) {
		err = f.connectErrs[f.connects]
	}
	f.connects++
	if err != nil {
		return err
	}
	f.connected[cfg.Name] = true
	return nil
}

func (f *fakeInvoker) IsConnected(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected[name]
}

func (f *fakeInvoker) CallTool(ctx context.Context, server, tool string, args map[string]any) mcpmgr.ToolCallResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, toolCall{Server: server, Tool: tool, Args: args})
	if res, ok := f.results[tool]; ok {
		return res
	}
	return mcpmgr.ToolCallResult{
		Success: true,
		Content: []mcpmgr.ContentItem{{Kind: mcpmgr.ContentText, Text: "ok"}},
	}
}

func (f *fakeInvoker) lastCall(t *testing.T) toolCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatalf("no tool calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func textResult(text string) mcpmgr.ToolCallResult {
	return mcpmgr.ToolCallResult{
		Success: true,
		Content: []mcpmgr.ContentItem{{Kind: mcpmgr.ContentText, Text: text}},
	}
}

func TestFilesystemReadFile(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.results["read_file"] = textResult("file body")
	fs := NewFilesystem(invoker, &Options{WorkspaceRoot: "/data", Command: "stub"})

	got, err := fs.ReadFile(context.Background(), "notes.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "file body" {
		t.Fatalf("ReadFile = %q, want %q", got, "file body")
	}

	call := invoker.lastCall(t)
	want := toolCall{
		Server: FilesystemServerName,
		Tool:   "read_file",
		Args:   map[string]any{"path": "notes.txt"},
	}
	if diff := cmp.Diff(want, call); diff != "" {
		t.Fatalf("call mismatch (-want +got):\n%s", diff)
	}
	if invoker.connects != 1 {
		t.Fatalf("connects = %d, want 1", invoker.connects)
	}
}

func TestFilesystemConnectsOnce(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	fs := NewFilesystem(invoker, &Options{Command: "stub"})
	ctx := context.Background()

	if err := fs.WriteFile(ctx, "a.txt", "x"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := fs.ReadFile(ctx, "a.txt"); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if invoker.connects != 1 {
		t.Fatalf("connects = %d, want 1 across calls", invoker.connects)
	}
}

func TestFilesystemListFiles(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.results["list_directory"] = textResult("[FILE] a.txt\n[DIR] sub\n\n")
	fs := NewFilesystem(invoker, &Options{Command: "stub"})

	entries, err := fs.ListFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []string{"[FILE] a.txt", "[DIR] sub"}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	// Empty path defaults to the workspace root.
	call := invoker.lastCall(t)
	if got := call.Args["path"]; got != "." {
		t.Fatalf("path arg = %v, want .", got)
	}
}

func TestFilesystemWriteFailure(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.results["write_file"] = mcpmgr.ToolCallResult{Success: false, Error: "access denied"}
	fs := NewFilesystem(invoker, &Options{Command: "stub"})

	err := fs.WriteFile(context.Background(), "a.txt", "x")
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("WriteFile error = %v, want access denied", err)
	}
}

func TestFilesystemCreateDirectory(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	fs := NewFilesystem(invoker, &Options{Command: "stub"})
	if err := fs.CreateDirectory(context.Background(), "out/reports"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if call := invoker.lastCall(t); call.Tool != "create_directory" {
		t.Fatalf("tool = %q, want create_directory", call.Tool)
	}
}

func TestEnsureConnectedRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.connectErrs = []error{
		errors.New("spawn failed"),
		errors.New("spawn failed"),
		nil,
	}
	fs := NewFilesystem(invoker, &Options{Command: "stub", ConnectAttempts: 3})

	if err := fs.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("EnsureConnected: %v", err)
	}
	if invoker.connects != 3 {
		t.Fatalf("connects = %d, want 3", invoker.connects)
	}
}

func TestEnsureConnectedGivesUp(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.connectErrs = []error{
		errors.New("spawn failed"),
		errors.New("spawn failed"),
	}
	fs := NewFilesystem(invoker, &Options{Command: "stub", ConnectAttempts: 2})

	if err := fs.EnsureConnected(context.Background()); err == nil {
		t.Fatalf("EnsureConnected succeeded after exhausted retries")
	}
	if invoker.connects != 2 {
		t.Fatalf("connects = %d, want 2", invoker.connects)
	}
}

func TestEnsureConnectedInvalidConfigNotRetried(t *testing.T) {
	t.Parallel()

	invalid := fmt.Errorf("bad config: %w", mcpmgr.ErrInvalidConfig)
	invoker := newFakeInvoker()
	invoker.connectErrs = []error{invalid, invalid, invalid}
	fs := NewFilesystem(invoker, &Options{Command: "stub", ConnectAttempts: 3})

	err := fs.EnsureConnected(context.Background())
	if !errors.Is(err, mcpmgr.ErrInvalidConfig) {
		t.Fatalf("EnsureConnected = %v, want ErrInvalidConfig", err)
	}
	if invoker.connects != 1 {
		t.Fatalf("connects = %d, want 1 for permanent error", invoker.connects)
	}
}

func TestBrowserCalls(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	browser := NewBrowser(invoker, &Options{Command: "stub"})
	ctx := context.Background()

	if err := browser.Navigate(ctx, "https://example.com"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if call := invoker.lastCall(t); call.Tool != "browser_navigate" || call.Args["url"] != "https://example.com" {
		t.Fatalf("unexpected call: %+v", call)
	}

	if err := browser.Click(ctx, "button#submit"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if call := invoker.lastCall(t); call.Tool != "browser_click" {
		t.Fatalf("tool = %q, want browser_click", call.Tool)
	}

	if err := browser.Type(ctx, "input#q", "golang"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	call := invoker.lastCall(t)
	if call.Args["element"] != "input#q" || call.Args["text"] != "golang" {
		t.Fatalf("Type args = %+v", call.Args)
	}
}

func TestBrowserSnapshot(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.results["browser_snapshot"] = textResult("- document\n  - button \"Submit\"")
	browser := NewBrowser(invoker, &Options{Command: "stub"})

	snapshot, err := browser.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !strings.Contains(snapshot, "Submit") {
		t.Fatalf("Snapshot = %q, want accessibility tree", snapshot)
	}
}

func TestBrowserScreenshot(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.results["browser_take_screenshot"] = mcpmgr.ToolCallResult{
		Success: true,
		Content: []mcpmgr.ContentItem{
			{Kind: mcpmgr.ContentText, Text: "screenshot of page"},
			{Kind: mcpmgr.ContentImage, Data: []byte{0x89, 0x50}, MIMEType: "image/png"},
		},
	}
	browser := NewBrowser(invoker, &Options{Command: "stub"})

	data, mime, err := browser.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if mime != "image/png" || len(data) != 2 {
		t.Fatalf("Screenshot = (%d bytes, %q)", len(data), mime)
	}
}

func TestBrowserScreenshotNoImage(t *testing.T) {
	t.Parallel()

	invoker := newFakeInvoker()
	invoker.results["browser_take_screenshot"] = textResult("no image here")
	browser := NewBrowser(invoker, &Options{Command: "stub"})

	if _, _, err := browser.Screenshot(context.Background()); err == nil {
		t.Fatalf("Screenshot succeeded without image content")
	}
}

func TestToolDefinitions(t *testing.T) {
	t.Parallel()

	fs := NewFilesystem(newFakeInvoker(), nil)
	browser := NewBrowser(newFakeInvoker(), nil)

	for _, def := range append(fs.ToolDefinitions(), browser.ToolDefinitions()...) {
		if def.Name == "" || def.Description == "" {
			t.Errorf("incomplete tool definition: %+v", def)
		}
	}
	if got := len(fs.ToolDefinitions()); got != 4 {
		t.Errorf("filesystem definitions = %d, want 4", got)
	}
	if got := len(browser.ToolDefinitions()); got != 5 {
		t.Errorf("browser definitions = %d, want 5", got)
	}
}
