package service

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfykit/studio-ui/internal/apiclient"
)

const formSchemaFixture = `{
	"workflow_id": "sdxl-basic",
	"title": "SDXL Basic",
	"fields": [
		{"node_id": "4", "title": "Prompt", "class_type": "CLIPTextEncode", "widget": "textarea", "default": ""},
		{"node_id": "7", "title": "Seed", "class_type": "KSampler", "widget": "number", "default": 0},
		{"node_id": "9", "title": "Checkpoint", "class_type": "CheckpointLoaderSimple"}
	]
}`

func TestListWorkflows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/forms/workflows", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"sdxl-basic","name":"SDXL Basic","description":"text to image"}]`)) //nolint:errcheck
	})

	svc := NewWorkflowService(WorkflowServiceOptions{Client: newBackendClient(t, mux)})
	workflows, err := svc.List(context.Background(), apiclient.Static("tok"))
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "sdxl-basic", workflows[0].ID)
}

func TestSchemaParamsProjection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/forms/workflows/sdxl-basic/form-schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(formSchemaFixture)) //nolint:errcheck
	})

	svc := NewWorkflowService(WorkflowServiceOptions{Client: newBackendClient(t, mux)})
	schema, err := svc.Schema(context.Background(), apiclient.Static("tok"), "sdxl-basic")
	require.NoError(t, err)
	assert.Equal(t, "SDXL Basic", schema.Title)
	require.Len(t, schema.Fields, 3)

	params, err := schema.Params()
	require.NoError(t, err)
	require.Len(t, params, 3)
	assert.Equal(t, WorkflowParam{NodeID: "4", Title: "Prompt", ClassType: "CLIPTextEncode"}, params[0])
	assert.Equal(t, WorkflowParam{NodeID: "7", Title: "Seed", ClassType: "KSampler"}, params[1])
}

func TestParamsOnEmptySchema(t *testing.T) {
	var schema *FormSchema
	params, err := schema.Params()
	require.NoError(t, err)
	assert.Nil(t, params)

	var empty FormSchema
	require.NoError(t, json.Unmarshal([]byte(`{"workflow_id":"x"}`), &empty))
	params, err = empty.Params()
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestExecutePostsMultipartNodesField(t *testing.T) {
	var gotNodes string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/forms/workflows/sdxl-basic/execute", func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		require.NoError(t, err)
		require.Equal(t, "nodes", part.FormName())
		raw, err := io.ReadAll(part)
		require.NoError(t, err)
		gotNodes = string(raw)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"execution_id":"exec-1","status":"queued"}`)) //nolint:errcheck
	})

	svc := NewWorkflowService(WorkflowServiceOptions{Client: newBackendClient(t, mux)})
	ref, err := svc.Execute(context.Background(), apiclient.Static("tok"), "sdxl-basic",
		map[string]any{"4": map[string]any{"text": "a cat"}})
	require.NoError(t, err)
	assert.Equal(t, "exec-1", ref.ExecutionID)
	assert.Equal(t, "queued", ref.Status)
	assert.JSONEq(t, `{"4":{"text":"a cat"}}`, gotNodes)
}

func TestExecutionStatusAndCancel(t *testing.T) {
	var cancelled bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/forms/executions/exec-1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"execution_id":"exec-1","status":"running","progress":0.4}`)) //nolint:errcheck
	})
	mux.HandleFunc("DELETE /api/v1/forms/executions/exec-1", func(w http.ResponseWriter, r *http.Request) {
		cancelled = true
		w.WriteHeader(http.StatusNoContent)
	})

	svc := NewWorkflowService(WorkflowServiceOptions{Client: newBackendClient(t, mux)})

	status, err := svc.Status(context.Background(), apiclient.Static("tok"), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	assert.InDelta(t, 0.4, status.Progress, 0.001)

	require.NoError(t, svc.Cancel(context.Background(), apiclient.Static("tok"), "exec-1"))
	assert.True(t, cancelled)
}

func TestWorkflowInputValidation(t *testing.T) {
	svc := NewWorkflowService(WorkflowServiceOptions{Client: apiclient.New(apiclient.Options{})})
	ctx := context.Background()

	_, err := svc.Schema(ctx, apiclient.None, "")
	assert.Error(t, err)
	_, err = svc.Execute(ctx, apiclient.None, "", nil)
	assert.Error(t, err)
	_, err = svc.Status(ctx, apiclient.None, "")
	assert.Error(t, err)
	assert.Error(t, svc.Cancel(ctx, apiclient.None, ""))
}
