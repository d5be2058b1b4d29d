// Package remote implements the interview session protocol over the REST
// API of the interview backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	interview "github.com/koscakluka/ema-interview/core"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultTimeout = 15 * time.Second

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// StatusError is a non-2xx answer from the backend. It matches
// [interview.ErrRemoteCallFailure] with errors.Is.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == interview.ErrRemoteCallFailure
}

// Client talks to the interview backend. It implements
// [interview.SessionClient].
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ interview.SessionClient = (*Client)(nil)

type ClientOption func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the traced default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return r.Method + " " + r.URL.Path
				}),
			),
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) StartInterview(ctx context.Context, resumeID string) (string, error) {
	var response startResponse
	if err := c.do(ctx, "start interview", http.MethodPost, "/api/interview/start", startRequest{ResumeID: flexID(resumeID)}, &response); err != nil {
		return "", err
	}
	if response.SessionID == "" {
		return "", errors.New("start interview: response carried no session id")
	}
	return string(response.SessionID), nil
}

func (c *Client) GetNextQuestion(ctx context.Context, sessionID string) (*interview.Question, error) {
	var response interviewResponse
	if err := c.do(ctx, "get next question", http.MethodGet, sessionPath(sessionID, "question"), nil, &response); err != nil {
		return nil, err
	}

	var question interview.Question
	if err := copier.Copy(&question, &response); err != nil {
		return nil, fmt.Errorf("get next question: failed to map response: %w", err)
	}
	if !question.IsCompleted && strings.TrimSpace(question.Prompt) == "" {
		return nil, errors.New("get next question: response carried no question text")
	}
	return &question, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sessionID, questionID, answer string) (*interview.SubmitResult, error) {
	request := submitRequest{
		SessionID:  flexID(sessionID),
		QuestionID: flexID(questionID),
		Answer:     answer,
	}
	var response interviewResponse
	if err := c.do(ctx, "submit answer", http.MethodPost, "/api/interview/submit-answer", request, &response); err != nil {
		return nil, err
	}
	return &interview.SubmitResult{Feedback: response.Feedback}, nil
}

func (c *Client) EndInterview(ctx context.Context, sessionID string) error {
	return c.do(ctx, "end interview", http.MethodPost, sessionPath(sessionID, "end"), struct{}{}, nil)
}

func (c *Client) GetInterviewReport(ctx context.Context, sessionID string) (*interview.Report, error) {
	var response reportResponse
	if err := c.do(ctx, "get interview report", http.MethodGet, sessionPath(sessionID, "report"), nil, &response); err != nil {
		return nil, err
	}

	var report interview.Report
	if err := copier.Copy(&report, &response); err != nil {
		return nil, fmt.Errorf("get interview report: failed to map response: %w", err)
	}
	return &report, nil
}

func (c *Client) ListResumes(ctx context.Context) ([]interview.Resume, error) {
	var response []resumeResponse
	if err := c.do(ctx, "list resumes", http.MethodGet, "/api/resume/user", nil, &response); err != nil {
		return nil, err
	}

	resumes := make([]interview.Resume, 0, len(response))
	for _, item := range response {
		var resume interview.Resume
		if err := copier.Copy(&resume, &item); err != nil {
			return nil, fmt.Errorf("list resumes: failed to map response: %w", err)
		}
		if uploaded, ok := parseTimestamp(item.Uploaded); ok {
			resume.CreatedAt = uploaded
		}
		resumes = append(resumes, resume)
	}
	return resumes, nil
}

func sessionPath(sessionID, action string) string {
	return "/api/interview/" + url.PathEscape(sessionID) + "/" + action
}

// do sends a JSON request and decodes a JSON response into out, when out is
// not nil.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) (err error) {
	ctx, span := tracer.Start(ctx, operation)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", operation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	span.SetAttributes(attribute.String("request.url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to send request: %w", operation, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("failed to close response body", "operation", operation, "error", err)
		}
	}()
	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", operation, readStatusError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", operation, err)
	}
	return nil
}

func readStatusError(resp *http.Response) *StatusError {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		logger.Debug("failed to read error body", "status", resp.StatusCode, "error", err)
		return statusErr
	}

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		statusErr.Message = body.Message
	} else {
		statusErr.Message = strings.TrimSpace(string(raw))
	}
	return statusErr
}
