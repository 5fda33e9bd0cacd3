package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/betteragri-next/internal/config"
)

// ErrServiceDisabled 推理服务未启用
var ErrServiceDisabled = errors.New("diagnosis service disabled")

// Result 推理服务返回结果
type Result struct {
	CropName       string  `json:"crop_name"`
	Disease        string  `json:"disease"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
}

// Client 病害诊断推理服务 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
}

// NewClient 创建诊断客户端
func NewClient(cfg *config.AIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		enabled:    cfg.Enabled,
	}
}

// Enabled 服务是否启用
func (c *Client) Enabled() bool {
	return c.enabled && c.baseURL != ""
}

// Predict 以 multipart 上传图片调用推理接口
func (c *Client) Predict(ctx context.Context, filename string, image io.Reader) (*Result, error) {
	if !c.Enabled() {
		return nil, ErrServiceDisabled
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/predict", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("diagnosis service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
