package jobs

import (
	"context"
	"fmt"
	"time"
)

// Job types accepted by the platform.
const (
	TypeCodeExecution   = "code_execution"
	TypeFileProcessing  = "file_processing"
	TypeWorkspaceExport = "workspace_export"
)

// simulate sleeps for d or until ctx is cancelled. The execution backends
// behind these handlers (sandbox runner, file pipeline, archive builder) are
// external services; the handlers model their latency and result shapes.
func simulate(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CodeExecutionHandler runs a submitted code snippet.
type CodeExecutionHandler struct {
	delay time.Duration
}

func NewCodeExecutionHandler(delay time.Duration) *CodeExecutionHandler {
	return &CodeExecutionHandler{delay: delay}
}

func (h *CodeExecutionHandler) Type() string { return TypeCodeExecution }

func (h *CodeExecutionHandler) Execute(ctx context.Context, payload map[string]interface{}, progress ProgressFunc) (map[string]interface{}, error) {
	code, _ := payload["code"].(string)
	language, _ := payload["language"].(string)
	if code == "" || language == "" {
		return nil, fmt.Errorf("code_execution payload requires code and language")
	}

	progress(25)
	start := time.Now()
	if err := simulate(ctx, h.delay); err != nil {
		return nil, err
	}
	progress(75)

	return map[string]interface{}{
		"output":         fmt.Sprintf("Executed %s code successfully", language),
		"execution_time": time.Since(start).Milliseconds(),
	}, nil
}

// FileProcessingHandler processes a batch of workspace files.
type FileProcessingHandler struct {
	delay time.Duration
}

func NewFileProcessingHandler(delay time.Duration) *FileProcessingHandler {
	return &FileProcessingHandler{delay: delay}
}

func (h *FileProcessingHandler) Type() string { return TypeFileProcessing }

func (h *FileProcessingHandler) Execute(ctx context.Context, payload map[string]interface{}, progress ProgressFunc) (map[string]interface{}, error) {
	files, ok := payload["files"].([]interface{})
	if !ok || len(files) == 0 {
		return nil, fmt.Errorf("file_processing payload requires a non-empty files list")
	}

	progress(25)
	if err := simulate(ctx, h.delay); err != nil {
		return nil, err
	}
	progress(75)

	return map[string]interface{}{
		"status":          "processed",
		"files":           files,
		"processed_count": len(files),
	}, nil
}

// WorkspaceExportHandler builds a downloadable archive of a workspace.
type WorkspaceExportHandler struct {
	delay         time.Duration
	exportBaseURL string
}

func NewWorkspaceExportHandler(delay time.Duration, exportBaseURL string) *WorkspaceExportHandler {
	if exportBaseURL == "" {
		exportBaseURL = "https://exports.example.com"
	}
	return &WorkspaceExportHandler{delay: delay, exportBaseURL: exportBaseURL}
}

func (h *WorkspaceExportHandler) Type() string { return TypeWorkspaceExport }

func (h *WorkspaceExportHandler) Execute(ctx context.Context, payload map[string]interface{}, progress ProgressFunc) (map[string]interface{}, error) {
	workspaceId, _ := payload["workspace_id"].(string)
	if workspaceId == "" {
		return nil, fmt.Errorf("workspace_export payload requires workspace_id")
	}

	progress(25)
	if err := simulate(ctx, h.delay); err != nil {
		return nil, err
	}
	progress(75)

	return map[string]interface{}{
		"status":       "exported",
		"workspace_id": workspaceId,
		"export_url":   fmt.Sprintf("%s/%s.zip", h.exportBaseURL, workspaceId),
	}, nil
}
