package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scanvault/api/internal/config"
	"github.com/scanvault/api/internal/model"
)

// Vendor defines the photogrammetry vendor operations the service depends on
type Vendor interface {
	SubmitVideo(ctx context.Context, req *SubmitVideoRequest) (*SubmitVideoResult, error)
	GetStatus(ctx context.Context, jobID string) (*StatusResult, error)
	GetModelZip(ctx context.Context, jobID string) (*ArtifactResult, error)
	GetBalance(ctx context.Context) (*BalanceResult, error)
}

// KiriClient implements Vendor for the KIRI Engine open API
type KiriClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	notifyURL  string
	logger     *zap.Logger
}

// SubmitVideoRequest is a video submission with its processing options
type SubmitVideoRequest struct {
	FileName         string
	Video            io.Reader
	ModelQuality     string
	TextureQuality   string
	FileFormat       string
	IsMask           string
	TextureSmoothing string
}

// SubmitVideoResult is the vendor's acknowledgement of a new job
type SubmitVideoResult struct {
	JobID         string
	CalculateType int
}

// StatusResult is a point-in-time vendor status observation. The URLs and
// error message are empty when the vendor did not report them.
type StatusResult struct {
	JobID        string
	Status       int
	ModelURL     string
	ThumbnailURL string
	ErrorMessage string
}

// ArtifactResult points at the vendor-hosted model archive
type ArtifactResult struct {
	JobID    string
	ModelURL string
}

// BalanceResult is the vendor account credit balance
type BalanceResult struct {
	Balance float64
}

type kiriEnvelope struct {
	Code *model.VendorCode `json:"code"`
	Msg  string            `json:"msg"`
	OK   *bool             `json:"ok"`
	Data json.RawMessage   `json:"data"`
}

func (e *kiriEnvelope) success() bool {
	if e.Code == nil {
		return false
	}
	if *e.Code != 0 && *e.Code != 200 {
		return false
	}
	return e.OK == nil || *e.OK
}

// callOpts controls how a non-success envelope is classified
type callOpts struct {
	lookup   bool
	artifact bool
}

// NewKiriClient creates a new KIRI Engine API client
func NewKiriClient(cfg *config.KiriConfig, logger *zap.Logger) *KiriClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &KiriClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		notifyURL: cfg.NotifyURL,
		logger:    logger.Named("kiri"),
	}
}

// SubmitVideo uploads a video and starts a photogrammetry job
func (c *KiriClient) SubmitVideo(ctx context.Context, req *SubmitVideoRequest) (*SubmitVideoResult, error) {
	const op = "submit video"
	if req == nil || req.Video == nil {
		return nil, fmt.Errorf("kiri %s: video is required", op)
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "video.mp4"
	}

	// Stream the form so the video is never held in memory a second time
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(c.writeVideoForm(w, fileName, req))
	}()
	defer pr.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/open/photo/video", pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var data struct {
		Serialize     string            `json:"serialize"`
		CalculateType *model.VendorCode `json:"calculateType"`
	}
	if _, err := c.doRequest(httpReq, op, callOpts{}, &data); err != nil {
		return nil, err
	}
	if data.Serialize == "" {
		return nil, protocolError(op, nil, "response has no serialize")
	}

	result := &SubmitVideoResult{JobID: data.Serialize}
	if data.CalculateType != nil {
		result.CalculateType = int(*data.CalculateType)
	}
	return result, nil
}

// writeVideoForm writes the multipart submission form to w and closes it
func (c *KiriClient) writeVideoForm(w *multipart.Writer, fileName string, req *SubmitVideoRequest) error {
	part, err := w.CreateFormFile("videoFile", fileName)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, req.Video); err != nil {
		return fmt.Errorf("failed to stream video: %w", err)
	}

	fields := []struct{ key, value string }{
		{"modelQuality", req.ModelQuality},
		{"textureQuality", req.TextureQuality},
		{"fileFormat", req.FileFormat},
		{"isMask", req.IsMask},
		{"textureSmoothing", req.TextureSmoothing},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.key, f.value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.key, err)
		}
	}
	if c.notifyURL != "" {
		if err := w.WriteField("notifyUrl", c.notifyURL); err != nil {
			return fmt.Errorf("failed to write field notifyUrl: %w", err)
		}
	}
	return w.Close()
}

// GetStatus retrieves the vendor's current status for a job. For a failed
// job without an errorMessage the envelope msg is reported instead.
func (c *KiriClient) GetStatus(ctx context.Context, jobID string) (*StatusResult, error) {
	const op = "get status"
	var data struct {
		Serialize    string            `json:"serialize"`
		Status       *model.VendorCode `json:"status"`
		ModelURL     string            `json:"modelUrl"`
		ThumbnailURL string            `json:"thumbnailUrl"`
		ErrorMessage string            `json:"errorMessage"`
	}
	endpoint := "/v1/open/model/getStatus?serialize=" + url.QueryEscape(jobID)
	msg, err := c.get(ctx, endpoint, op, callOpts{lookup: true}, &data)
	if err != nil {
		return nil, err
	}
	if data.Status == nil {
		return nil, protocolError(op, nil, "response has no status")
	}

	result := &StatusResult{
		JobID:        jobID,
		Status:       int(*data.Status),
		ModelURL:     strings.TrimSpace(data.ModelURL),
		ThumbnailURL: strings.TrimSpace(data.ThumbnailURL),
		ErrorMessage: strings.TrimSpace(data.ErrorMessage),
	}
	if result.Status == model.VendorStatusFailed && result.ErrorMessage == "" {
		result.ErrorMessage = strings.TrimSpace(msg)
	}
	return result, nil
}

// GetModelZip retrieves the download URL of a finished model archive
func (c *KiriClient) GetModelZip(ctx context.Context, jobID string) (*ArtifactResult, error) {
	const op = "get model zip"
	var data struct {
		Serialize string `json:"serialize"`
		ModelURL  string `json:"modelUrl"`
	}
	endpoint := "/v1/open/model/getModelZip?serialize=" + url.QueryEscape(jobID)
	if _, err := c.get(ctx, endpoint, op, callOpts{lookup: true, artifact: true}, &data); err != nil {
		return nil, err
	}
	if data.ModelURL == "" {
		return nil, protocolError(op, nil, "response has no modelUrl")
	}
	return &ArtifactResult{JobID: jobID, ModelURL: data.ModelURL}, nil
}

// GetBalance retrieves the account credit balance
func (c *KiriClient) GetBalance(ctx context.Context) (*BalanceResult, error) {
	const op = "get balance"
	var data struct {
		Balance json.RawMessage `json:"balance"`
	}
	if _, err := c.get(ctx, "/v1/open/balance", op, callOpts{}, &data); err != nil {
		return nil, err
	}

	balance, err := parseBalance(data.Balance)
	if err != nil {
		return nil, protocolError(op, err, "invalid balance")
	}
	return &BalanceResult{Balance: balance}, nil
}

// parseBalance accepts a JSON number or a numeric string
func parseBalance(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("balance missing")
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(str)
	}
	return strconv.ParseFloat(s, 64)
}

// get sends a GET request and decodes the envelope data into result
func (c *KiriClient) get(ctx context.Context, endpoint, op string, opts callOpts, result interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	return c.doRequest(req, op, opts, result)
}

// doRequest executes an HTTP request, classifies the outcome and decodes
// the envelope data into result. It returns the envelope msg on success.
func (c *KiriClient) doRequest(req *http.Request, op string, opts callOpts, result interface{}) (string, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	path := req.URL.Path
	start := time.Now()
	c.logger.Debug("→ request", zap.String("method", req.Method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("✗ request failed",
			zap.String("method", req.Method), zap.String("path", path),
			zap.Duration("latency", time.Since(start)), zap.Error(err))
		return "", unavailable(op, 0, err, "")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", unavailable(op, resp.StatusCode, err, "failed to read response")
	}

	c.logger.Info("← response",
		zap.String("method", req.Method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Some vendor rejections arrive with a 4xx and a readable envelope
		var env kiriEnvelope
		if json.Unmarshal(respBody, &env) == nil && env.Code != nil && opts.lookup {
			if ve := rejected(op, int(*env.Code), env.Msg, opts.lookup, opts.artifact); ve.Kind != model.ErrVendorRejected {
				return "", ve
			}
		}
		return "", unavailable(op, resp.StatusCode, nil, truncate(string(respBody), 256))
	}

	var env kiriEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		c.logger.Warn("✗ undecodable response", zap.String("path", path), zap.Error(err))
		return "", protocolError(op, err, "undecodable envelope")
	}
	if !env.success() {
		code := 0
		if env.Code != nil {
			code = int(*env.Code)
		}
		return "", rejected(op, code, env.Msg, opts.lookup, opts.artifact)
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return "", protocolError(op, nil, "response has no data")
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return "", protocolError(op, err, "undecodable data")
	}
	return env.Msg, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *KiriClient) IsConfigured() bool {
	return c.apiKey != "" && c.baseURL != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
