// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/toolfed/federation"
	"github.com/bureau-foundation/toolfed/lib/codec"
	"github.com/bureau-foundation/toolfed/lib/service"
)

// Handler serves a System's operations as socket actions.
type Handler struct {
	system *federation.System
	logger *slog.Logger
}

// NewHandler creates a Handler. A nil logger discards.
func NewHandler(system *federation.System, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{system: system, logger: logger}
}

// Register installs every action on server.
func (h *Handler) Register(server *service.SocketServer) {
	server.Handle("init", h.handleInit)
	server.Handle("tools", h.handleTools)
	server.Handle("mount", h.handleMount)
	server.Handle("mounts", h.handleMounts)
	server.Handle("exec", h.handleExec)
	server.Handle("reinit", h.handleReinit)
	server.Handle("federate", h.handleFederate)

	server.Handle("cd", h.handleCd)
	server.Handle("pwd", h.handlePwd)
	server.Handle("mkdir", h.handleMkdir)
	server.Handle("cat", h.handleCat)
	server.Handle("ls", h.handleLs)
	server.Handle("download", h.handleDownload)
	server.Handle("blob", h.handleBlob)
	server.Handle("read", h.handleRead)
	server.Handle("write", h.handleWrite)
}

func decode(raw []byte, request any) error {
	if err := codec.Unmarshal(raw, request); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

func (h *Handler) handleInit(ctx context.Context, raw []byte) (any, error) {
	if err := h.system.Init(ctx); err != nil {
		return nil, err
	}
	return ToolsResponse{Tools: h.system.Tools()}, nil
}

func (h *Handler) handleTools(ctx context.Context, raw []byte) (any, error) {
	return ToolsResponse{Tools: h.system.Tools()}, nil
}

// toMountInput converts the wire form. An unknown kind is rejected
// before anything is mounted.
func toMountInput(input MountInput) (federation.MountInput, error) {
	switch input.Kind {
	case KindFile:
		return federation.LocalFile{Path: input.Path}, nil
	case KindBlob:
		return federation.NamedBlob{Name: input.Name, Data: input.Data}, nil
	case KindURL:
		return federation.RemoteURL{URL: input.URL}, nil
	default:
		return nil, fmt.Errorf("%w: unknown input kind %q", federation.ErrMount, input.Kind)
	}
}

func (h *Handler) handleMount(ctx context.Context, raw []byte) (any, error) {
	var request mountRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if len(request.Inputs) == 0 {
		return nil, errors.New("missing required field: inputs")
	}
	inputs := make([]federation.MountInput, len(request.Inputs))
	for index, input := range request.Inputs {
		converted, err := toMountInput(input)
		if err != nil {
			return nil, err
		}
		inputs[index] = converted
	}
	paths, err := h.system.Mount(ctx, inputs...)
	if err != nil {
		return nil, err
	}
	return MountResponse{Paths: paths}, nil
}

func (h *Handler) handleMounts(ctx context.Context, raw []byte) (any, error) {
	return MountsResponse{Files: h.system.MountedFiles()}, nil
}

func (h *Handler) handleExec(ctx context.Context, raw []byte) (any, error) {
	var request execRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	var result federation.Result
	var err error
	switch {
	case request.Program != "":
		result, err = h.system.ExecArgs(ctx, request.Program, request.Args)
	case request.Command != "":
		result, err = h.system.Exec(ctx, request.Command)
	default:
		return nil, errors.New("missing required field: command or program")
	}
	if err != nil {
		return nil, err
	}
	response := ExecResponse{Stdout: result.Stdout, Stderr: result.Stderr}
	if result.Fault != nil {
		response.Fault = result.Fault.Error()
	}
	return response, nil
}

func (h *Handler) handleReinit(ctx context.Context, raw []byte) (any, error) {
	var request toolRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.Tool == "" {
		return nil, errors.New("missing required field: tool")
	}
	return nil, h.system.Reinit(ctx, request.Tool)
}

func (h *Handler) handleFederate(ctx context.Context, raw []byte) (any, error) {
	return nil, h.system.Federate()
}

func (h *Handler) handleCd(ctx context.Context, raw []byte) (any, error) {
	var request pathRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.Path == "" {
		return nil, errors.New("missing required field: path")
	}
	if err := h.system.Cd(request.Path); err != nil {
		return nil, err
	}
	return h.handlePwd(ctx, nil)
}

func (h *Handler) handlePwd(ctx context.Context, raw []byte) (any, error) {
	cwd, err := h.system.Pwd()
	if err != nil {
		return nil, err
	}
	return PathResponse{Path: cwd}, nil
}

func (h *Handler) handleMkdir(ctx context.Context, raw []byte) (any, error) {
	var request pathRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.Path == "" {
		return nil, errors.New("missing required field: path")
	}
	return nil, h.system.Mkdir(request.Path)
}

func (h *Handler) handleCat(ctx context.Context, raw []byte) (any, error) {
	var request pathRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	text, found := h.system.Cat(request.Path)
	return CatResponse{Found: found, Text: text}, nil
}

func (h *Handler) handleLs(ctx context.Context, raw []byte) (any, error) {
	var request pathRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.Path == "" {
		request.Path = "."
	}
	listing, found := h.system.Ls(request.Path)
	return LsResponse{Found: found, Names: listing.Names, File: listing.File}, nil
}

func (h *Handler) handleDownload(ctx context.Context, raw []byte) (any, error) {
	var request pathRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	url, found := h.system.Download(request.Path)
	return DownloadResponse{Found: found, URL: url}, nil
}

func (h *Handler) handleBlob(ctx context.Context, raw []byte) (any, error) {
	var request blobRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	data, found := h.system.Blob(request.URL)
	return BlobResponse{Found: found, Data: data}, nil
}

func (h *Handler) handleRead(ctx context.Context, raw []byte) (any, error) {
	var request readRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.Path == "" {
		return nil, errors.New("missing required field: path")
	}
	data, err := h.system.Read(federation.ReadRequest{
		Path:   request.Path,
		Offset: request.Offset,
		Length: request.Length,
	})
	if err != nil {
		return nil, err
	}
	return ReadResponse{Data: data}, nil
}

func (h *Handler) handleWrite(ctx context.Context, raw []byte) (any, error) {
	var request writeRequest
	if err := decode(raw, &request); err != nil {
		return nil, err
	}
	if request.Path == "" {
		return nil, errors.New("missing required field: path")
	}
	return nil, h.system.Write(federation.WriteRequest{
		Path:     request.Path,
		Offset:   request.Offset,
		Data:     request.Data,
		Truncate: request.Truncate,
	})
}
