package mcptools

import (
	"context"
	"fmt"

	"github.com/webpilot-ai/agentmcp/pkg/mcpmgr"
)

// BrowserServerName is the registry name the browser facade connects under.
const BrowserServerName = "playwright"

// Browser wraps the official @playwright/mcp server for driving a headless
// browser: navigation, element interaction, screenshots, and accessibility
// snapshots.
type Browser struct {
	invoker Invoker
	opts    Options
	cfg     mcpmgr.ServerConfig
}

// NewBrowser builds a browser facade on top of invoker.
func NewBrowser(invoker Invoker, opts *Options) *Browser {
	normalized := opts.normalized()
	return &Browser{
		invoker: invoker,
		opts:    normalized,
		cfg: mcpmgr.ServerConfig{
			Name:    BrowserServerName,
			Command: normalized.Command,
			Args: []string{
				"-y",
				"@playwright/mcp",
				"--caps", "testing",
				"--timeout-action", "10000",
				"--timeout-navigation", "30000",
			},
			Capabilities: map[string]bool{mcpmgr.CapabilityTools: true},
		},
	}
}

// ToolDefinitions lists the operations this facade exposes.
func (b *Browser) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: "playwright.navigate", Args: "url", Description: "Navigate browser to URL"},
		{Name: "playwright.snapshot", Args: "", Description: "Get page content to find selectors (use this before clicking)"},
		{Name: "playwright.click", Args: "element", Description: "Click element matching selector"},
		{Name: "playwright.type", Args: "element, text", Description: "Type text into element"},
		{Name: "playwright.screenshot", Args: "", Description: "Take page screenshot"},
	}
}

// EnsureConnected connects the browser server if it is not already live.
func (b *Browser) EnsureConnected(ctx context.Context) error {
	return ensureConnected(ctx, b.invoker, b.cfg, b.opts.ConnectAttempts)
}

func (b *Browser) call(ctx context.Context, tool string, args map[string]any) (mcpmgr.ToolCallResult, error) {
	if err := b.EnsureConnected(ctx); err != nil {
		return mcpmgr.ToolCallResult{}, err
	}
	b.opts.Logger.Debug("browser tool call", "tool", tool, "args", args)
	res := b.invoker.CallTool(ctx, b.cfg.Name, tool, args)
	if !res.Success {
		return res, resultErr(b.cfg.Name, tool, res)
	}
	return res, nil
}

// Navigate points the browser at url.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	_, err := b.call(ctx, "browser_navigate", map[string]any{"url": url})
	return err
}

// Click clicks the element matching the given selector.
func (b *Browser) Click(ctx context.Context, element string) error {
	_, err := b.call(ctx, "browser_click", map[string]any{"element": element})
	return err
}

// Type types text into the element matching the given selector.
func (b *Browser) Type(ctx context.Context, element, text string) error {
	_, err := b.call(ctx, "browser_type", map[string]any{"element": element, "text": text})
	return err
}

// Snapshot returns the page's accessibility snapshot as text. Agents use it
// to discover selectors before clicking or typing.
func (b *Browser) Snapshot(ctx context.Context) (string, error) {
	res, err := b.call(ctx, "browser_snapshot", map[string]any{})
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// Screenshot captures the current page and returns the image bytes with
// their MIME type.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, string, error) {
	res, err := b.call(ctx, "browser_take_screenshot", map[string]any{})
	if err != nil {
		return nil, "", err
	}
	for _, item := range res.Content {
		if item.Kind == mcpmgr.ContentImage {
			return item.Data, item.MIMEType, nil
		}
	}
	return nil, "", fmt.Errorf("mcptools: %s/browser_take_screenshot: no image in response", b.cfg.Name)
}
