package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noProgress(int) {}

func TestCodeExecutionHandler(t *testing.T) {
	h := NewCodeExecutionHandler(time.Millisecond)

	t.Run("executes valid payload", func(t *testing.T) {
		var reported []int
		result, err := h.Execute(context.Background(), map[string]interface{}{
			"code":     "print('hi')",
			"language": "python",
		}, func(p int) { reported = append(reported, p) })

		require.NoError(t, err)
		assert.Equal(t, "Executed python code successfully", result["output"])
		assert.Contains(t, result, "execution_time")
		assert.Equal(t, []int{25, 75}, reported)
	})

	t.Run("rejects missing code", func(t *testing.T) {
		_, err := h.Execute(context.Background(), map[string]interface{}{
			"language": "python",
		}, noProgress)
		assert.Error(t, err)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		slow := NewCodeExecutionHandler(10 * time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := slow.Execute(ctx, map[string]interface{}{
			"code":     "while true; do :; done",
			"language": "bash",
		}, noProgress)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileProcessingHandler(t *testing.T) {
	h := NewFileProcessingHandler(time.Millisecond)

	t.Run("processes file list", func(t *testing.T) {
		result, err := h.Execute(context.Background(), map[string]interface{}{
			"files": []interface{}{"a.go", "b.go", "c.go"},
		}, noProgress)

		require.NoError(t, err)
		assert.Equal(t, "processed", result["status"])
		assert.Equal(t, 3, result["processed_count"])
	})

	t.Run("rejects empty file list", func(t *testing.T) {
		_, err := h.Execute(context.Background(), map[string]interface{}{
			"files": []interface{}{},
		}, noProgress)
		assert.Error(t, err)
	})

	t.Run("rejects missing files key", func(t *testing.T) {
		_, err := h.Execute(context.Background(), map[string]interface{}{}, noProgress)
		assert.Error(t, err)
	})
}

func TestWorkspaceExportHandler(t *testing.T) {
	h := NewWorkspaceExportHandler(time.Millisecond, "https://exports.test/workspaces")

	t.Run("builds export url", func(t *testing.T) {
		result, err := h.Execute(context.Background(), map[string]interface{}{
			"workspace_id": "ws-42",
		}, noProgress)

		require.NoError(t, err)
		assert.Equal(t, "exported", result["status"])
		assert.Equal(t, "https://exports.test/workspaces/ws-42.zip", result["export_url"])
	})

	t.Run("rejects missing workspace id", func(t *testing.T) {
		_, err := h.Execute(context.Background(), map[string]interface{}{}, noProgress)
		assert.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewCodeExecutionHandler(0)))
	require.NoError(t, r.Register(NewFileProcessingHandler(0)))

	t.Run("rejects duplicate registration", func(t *testing.T) {
		assert.Error(t, r.Register(NewCodeExecutionHandler(0)))
	})

	t.Run("looks up registered handler", func(t *testing.T) {
		h, err := r.Lookup(TypeCodeExecution)
		require.NoError(t, err)
		assert.Equal(t, TypeCodeExecution, h.Type())
	})

	t.Run("unknown type", func(t *testing.T) {
		assert.False(t, r.Has("guess_what"))
		_, err := r.Lookup("guess_what")
		assert.Error(t, err)
	})

	t.Run("names are sorted", func(t *testing.T) {
		assert.Equal(t, []string{TypeCodeExecution, TypeFileProcessing}, r.Names())
	})
}
