// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/toolfed/federation"
	"github.com/bureau-foundation/toolfed/lib/service"
)

// Client provides typed access to a toolfed server. Each method maps
// to a single socket action.
type Client struct {
	client *service.Client
}

// NewClient creates a client for the server listening on socketPath.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		return nil, fmt.Errorf("toolfed socket path is required")
	}
	return &Client{client: service.NewClient(socketPath)}, nil
}

// --- Lifecycle ---

// Init activates the eager tools and returns their status.
func (c *Client) Init(ctx context.Context) ([]federation.ToolStatus, error) {
	var response ToolsResponse
	if err := c.client.Call(ctx, "init", nil, &response); err != nil {
		return nil, err
	}
	return response.Tools, nil
}

// Tools returns the status of every configured tool.
func (c *Client) Tools(ctx context.Context) ([]federation.ToolStatus, error) {
	var response ToolsResponse
	if err := c.client.Call(ctx, "tools", nil, &response); err != nil {
		return nil, err
	}
	return response.Tools, nil
}

// Reinit rebuilds one tool from scratch.
func (c *Client) Reinit(ctx context.Context, tool string) error {
	if tool == "" {
		return fmt.Errorf("tool is required")
	}
	return c.client.Call(ctx, "reinit", map[string]any{"tool": tool}, nil)
}

// Federate runs a federation pass.
func (c *Client) Federate(ctx context.Context) error {
	return c.client.Call(ctx, "federate", nil, nil)
}

// --- Inputs and commands ---

// Mount makes inputs visible under the shared data directory and
// returns their paths.
func (c *Client) Mount(ctx context.Context, inputs ...MountInput) ([]string, error) {
	var response MountResponse
	if err := c.client.Call(ctx, "mount", map[string]any{"inputs": inputs}, &response); err != nil {
		return nil, err
	}
	return response.Paths, nil
}

// MountedFiles returns the names of the files in the mount overlay.
func (c *Client) MountedFiles(ctx context.Context) ([]string, error) {
	var response MountsResponse
	if err := c.client.Call(ctx, "mounts", nil, &response); err != nil {
		return nil, err
	}
	return response.Files, nil
}

// Exec runs a whitespace-separated command line.
func (c *Client) Exec(ctx context.Context, command string) (ExecResponse, error) {
	var response ExecResponse
	err := c.client.Call(ctx, "exec", map[string]any{"command": command}, &response)
	return response, err
}

// ExecArgs runs program with args, which may contain whitespace.
func (c *Client) ExecArgs(ctx context.Context, program string, args []string) (ExecResponse, error) {
	if program == "" {
		return ExecResponse{}, fmt.Errorf("program is required")
	}
	var response ExecResponse
	err := c.client.Call(ctx, "exec", map[string]any{"program": program, "args": args}, &response)
	return response, err
}

// --- Files ---

// Cd changes the shared working directory and returns the new one.
func (c *Client) Cd(ctx context.Context, path string) (string, error) {
	var response PathResponse
	if err := c.client.Call(ctx, "cd", map[string]any{"path": path}, &response); err != nil {
		return "", err
	}
	return response.Path, nil
}

// Pwd returns the primary tool's working directory.
func (c *Client) Pwd(ctx context.Context) (string, error) {
	var response PathResponse
	if err := c.client.Call(ctx, "pwd", nil, &response); err != nil {
		return "", err
	}
	return response.Path, nil
}

func (c *Client) Mkdir(ctx context.Context, path string) error {
	return c.client.Call(ctx, "mkdir", map[string]any{"path": path}, nil)
}

// Cat returns a file's content. found is false when the path is
// missing or not a regular file.
func (c *Client) Cat(ctx context.Context, path string) (text string, found bool, err error) {
	var response CatResponse
	if err := c.client.Call(ctx, "cat", map[string]any{"path": path}, &response); err != nil {
		return "", false, err
	}
	return response.Text, response.Found, nil
}

// Ls lists a directory or describes a file.
func (c *Client) Ls(ctx context.Context, path string) (LsResponse, error) {
	var response LsResponse
	err := c.client.Call(ctx, "ls", map[string]any{"path": path}, &response)
	return response, err
}

// Download publishes a file to the blob store and returns its URL.
func (c *Client) Download(ctx context.Context, path string) (url string, found bool, err error) {
	var response DownloadResponse
	if err := c.client.Call(ctx, "download", map[string]any{"path": path}, &response); err != nil {
		return "", false, err
	}
	return response.URL, response.Found, nil
}

// Blob returns the content behind a URL from Download.
func (c *Client) Blob(ctx context.Context, url string) (data []byte, found bool, err error) {
	var response BlobResponse
	if err := c.client.Call(ctx, "blob", map[string]any{"url": url}, &response); err != nil {
		return nil, false, err
	}
	return response.Data, response.Found, nil
}

// Read returns length bytes at offset. A negative length reads to the
// end of the file.
func (c *Client) Read(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	var response ReadResponse
	err := c.client.Call(ctx, "read", map[string]any{
		"path":   path,
		"offset": offset,
		"length": length,
	}, &response)
	if err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Write stores data at offset, creating the file if needed.
func (c *Client) Write(ctx context.Context, path string, offset int64, data []byte, truncate bool) error {
	return c.client.Call(ctx, "write", map[string]any{
		"path":     path,
		"offset":   offset,
		"data":     data,
		"truncate": truncate,
	}, nil)
}
