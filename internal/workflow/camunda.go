package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"
)

// Starter starts one process instance per purchase request.
type Starter interface {
	Start(ctx context.Context, businessKey string, vars Variables) (instanceID string, err error)
}

// NoopStarter is used when no runtime is configured; the service then drives
// the lifecycle from its own API.
type NoopStarter struct{}

func (NoopStarter) Start(_ context.Context, businessKey string, _ Variables) (string, error) {
	return "local-" + businessKey, nil
}

type typedValue struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

type startRequest struct {
	BusinessKey string                `json:"businessKey"`
	Variables   map[string]typedValue `json:"variables"`
}

type startResponse struct {
	ID          string `json:"id"`
	BusinessKey string `json:"businessKey"`
}

type engineError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CamundaClient starts processes through the engine REST API.
type CamundaClient struct {
	client     *req.Client
	processKey string
}

// NewCamundaClient targets baseURL (for example http://localhost:8080/engine-rest).
func NewCamundaClient(baseURL, processKey, username, password string, timeout time.Duration) *CamundaClient {
	c := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetCommonHeader("Accept", "application/json")
	if username != "" {
		c.SetCommonBasicAuth(username, password)
	}
	return &CamundaClient{client: c, processKey: processKey}
}

func (c *CamundaClient) Start(ctx context.Context, businessKey string, vars Variables) (string, error) {
	body := startRequest{BusinessKey: businessKey, Variables: make(map[string]typedValue, len(vars))}
	for name, v := range vars {
		body.Variables[name] = typedValue{Value: v, Type: typeOf(v)}
	}

	var (
		out     startResponse
		failure engineError
	)
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("key", c.processKey).
		SetBody(&body).
		SetSuccessResult(&out).
		SetErrorResult(&failure).
		Post("/process-definition/key/{key}/start")
	if err != nil {
		return "", fmt.Errorf("start process %s for %s: %w", c.processKey, businessKey, err)
	}
	if resp.IsErrorState() {
		return "", fmt.Errorf("start process %s for %s: %s: %s", c.processKey, businessKey, resp.Status, failure.Message)
	}
	if out.ID == "" {
		return "", fmt.Errorf("start process %s for %s: empty instance id", c.processKey, businessKey)
	}
	return out.ID, nil
}

func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return "Null"
	case bool:
		return "Boolean"
	case int, int32, int64:
		return "Long"
	case float32, float64:
		return "Double"
	default:
		return "String"
	}
}
