package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"campus-chat/internal/logging"
	"campus-chat/internal/models"
)

const (
	DefaultModel      = "gemini-3-flash-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// UniBotInstruction is the persona given to the text model
const UniBotInstruction = "You are 'UniBot', a helpful, friendly, and knowledgeable university AI assistant. " +
	"You help students with academic queries, club information, and general campus life advice. " +
	"Keep answers concise and encouraging. " +
	"If asked about specific dates or private user data, politely explain you are a demo assistant."

var (
	// ErrServiceUnavailable is returned when no credential is configured
	ErrServiceUnavailable = errors.New("ai service unavailable")
	// ErrEmptyResponse is returned when the service answers with nothing usable
	ErrEmptyResponse = errors.New("ai service returned an empty response")
)

// RemoteError wraps a failed call to the AI service
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ai service %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Client provides access to the Gemini text and image models
type Client struct {
	genai             *genai.Client
	model             string
	imageModel        string
	systemInstruction string
	httpClient        *http.Client
	baseURL           string
	logger            *zap.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the text model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithImageModel sets the image model
func WithImageModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.imageModel = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at a different API endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithSystemInstruction replaces the UniBot persona
func WithSystemInstruction(instruction string) ClientOption {
	return func(c *Client) {
		c.systemInstruction = instruction
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logging.Named(logger, "assistant")
	}
}

// NewClient creates a Gemini client. An empty apiKey gives a client whose
// calls all fail with ErrServiceUnavailable.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:             DefaultModel,
		imageModel:        DefaultImageModel,
		systemInstruction: UniBotInstruction,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if apiKey == "" {
		c.logger.Warn("API key not configured, assistant disabled")
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.genai = client

	c.logger.Info("Client initialized", zap.String("model", c.model), zap.String("image_model", c.imageModel))
	return c, nil
}

// Available reports whether the client has a credential
func (c *Client) Available() bool {
	return c != nil && c.genai != nil
}

// GenerateReply asks the text model to answer latest, given prior history
func (c *Client) GenerateReply(ctx context.Context, latest string, history []models.HistoryEntry) (string, error) {
	if !c.Available() {
		return "", ErrServiceUnavailable
	}

	c.logger.Debug("GenerateReply started", zap.Int("history", len(history)), zap.Int("prompt_length", len(latest)))

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, h := range history {
		var role genai.Role = genai.RoleUser
		if h.Role == models.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(h.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(latest, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.systemInstruction, genai.RoleUser),
	}

	res, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		c.logger.Warn("GenerateReply failed", zap.Error(err))
		return "", &RemoteError{Op: "generate reply", Err: err}
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("GenerateReply completed", zap.Int("reply_length", len(text)))
	return text, nil
}
