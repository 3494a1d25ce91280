package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/comfykit/studio-ui/internal/apiclient"
)

// paramsExpr projects the editable inputs out of a workflow form schema.
const paramsExpr = `fields[].{node_id: node_id, title: title, class_type: class_type}`

// WorkflowServiceOptions groups dependencies for WorkflowService.
type WorkflowServiceOptions struct {
	Client *apiclient.Client
	Logger *slog.Logger
}

// WorkflowService fronts the backend's workflow form endpoints: listing
// registered workflows, reading their input schemas, and driving executions.
type WorkflowService struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewWorkflowService constructs a new WorkflowService.
func NewWorkflowService(opts WorkflowServiceOptions) *WorkflowService {
	if opts.Client == nil {
		panic("service: WorkflowService requires a backend client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkflowService{client: opts.Client, logger: logger}
}

// Workflow is a registered workflow as listed by the backend.
type Workflow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List returns the workflows the token may see.
func (s *WorkflowService) List(ctx context.Context, token apiclient.TokenSource) ([]Workflow, error) {
	var workflows []Workflow
	if err := s.client.GetJSON(ctx, "/forms/workflows", token, &workflows); err != nil {
		return nil, err
	}
	return workflows, nil
}

// FormSchema is the backend's form description for one workflow. The field
// entries are kept raw; Params projects the subset the UI renders.
type FormSchema struct {
	WorkflowID string            `json:"workflow_id"`
	Title      string            `json:"title"`
	Fields     []json.RawMessage `json:"fields"`

	raw map[string]any
}

// UnmarshalJSON keeps both the typed view and the raw document, so Params
// can run a projection over the schema exactly as the backend sent it.
func (f *FormSchema) UnmarshalJSON(data []byte) error {
	type alias FormSchema
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = FormSchema(a)
	return json.Unmarshal(data, &f.raw)
}

// WorkflowParam is one editable input of a workflow form.
type WorkflowParam struct {
	NodeID    string `json:"node_id"`
	Title     string `json:"title"`
	ClassType string `json:"class_type"`
}

// Params projects the form schema down to the fields the run page renders.
func (f *FormSchema) Params() ([]WorkflowParam, error) {
	if f == nil || f.raw == nil {
		return nil, nil
	}
	result, err := jmespath.Search(paramsExpr, f.raw)
	if err != nil {
		return nil, fmt.Errorf("project form fields: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode projected fields: %w", err)
	}
	var params []WorkflowParam
	if err := json.Unmarshal(encoded, &params); err != nil {
		return nil, fmt.Errorf("decode projected fields: %w", err)
	}
	return params, nil
}

// Schema fetches the form schema for one workflow.
func (s *WorkflowService) Schema(ctx context.Context, token apiclient.TokenSource, workflowID string) (*FormSchema, error) {
	if workflowID == "" {
		return nil, errors.New("workflow id is required")
	}
	var schema FormSchema
	path := "/forms/workflows/" + url.PathEscape(workflowID) + "/form-schema"
	if err := s.client.GetJSON(ctx, path, token, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// ExecutionRef identifies a started execution.
type ExecutionRef struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// Execute starts a workflow run. The node overrides are posted as the
// multipart field "nodes", matching what the backend's form endpoint expects.
func (s *WorkflowService) Execute(ctx context.Context, token apiclient.TokenSource, workflowID string, nodes map[string]any) (*ExecutionRef, error) {
	if workflowID == "" {
		return nil, errors.New("workflow id is required")
	}

	encoded, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("encode node overrides: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("nodes", string(encoded)); err != nil {
		return nil, fmt.Errorf("write multipart form: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart form: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", form.FormDataContentType())

	var ref ExecutionRef
	err = s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/forms/workflows/" + url.PathEscape(workflowID) + "/execute",
		Header: header,
		Body:   &buf,
		Token:  token,
	}, &ref)
	if err != nil {
		return nil, err
	}

	s.logger.Info("workflow execution started", "workflow_id", workflowID, "execution_id", ref.ExecutionID)
	return &ref, nil
}

// ExecutionStatus is a point-in-time snapshot of a running execution.
type ExecutionStatus struct {
	ExecutionID string          `json:"execution_id"`
	Status      string          `json:"status"`
	Progress    float64         `json:"progress"`
	Outputs     json.RawMessage `json:"outputs,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Status polls one execution.
func (s *WorkflowService) Status(ctx context.Context, token apiclient.TokenSource, executionID string) (*ExecutionStatus, error) {
	if executionID == "" {
		return nil, errors.New("execution id is required")
	}
	var status ExecutionStatus
	path := "/forms/executions/" + url.PathEscape(executionID) + "/status"
	if err := s.client.GetJSON(ctx, path, token, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Cancel aborts one execution.
func (s *WorkflowService) Cancel(ctx context.Context, token apiclient.TokenSource, executionID string) error {
	if executionID == "" {
		return errors.New("execution id is required")
	}
	return s.client.Delete(ctx, "/forms/executions/"+url.PathEscape(executionID), token)
}
