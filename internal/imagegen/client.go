package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"theneighbor/api/internal/config"
)

var ErrEmptyResponse = errors.New("image generation returned no image")

// maxResponseBytes bounds both the JSON envelope and a fetched image.
const maxResponseBytes = 64 << 20

type Request struct {
	Image       []byte
	Filename    string
	ContentType string
	Prompt      string
}

type editResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client talks to an OpenAI-compatible /images/edits endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	size       string
	background string
	http       *http.Client
}

func New(cfg config.ImageGenConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		size:       cfg.Size,
		background: cfg.Background,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Generate sends the photo and prompt and returns the decoded image bytes.
func (c *Client) Generate(ctx context.Context, in Request) ([]byte, error) {
	if len(in.Image) == 0 {
		return nil, errors.New("empty source image")
	}

	body, contentType, err := c.encodeForm(in)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("images edits: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out editResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("images edits (%d): %s", resp.StatusCode, out.Error.Message)
		}
		return nil, fmt.Errorf("images edits http error (%d)", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if len(out.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	first := out.Data[0]
	switch {
	case first.B64JSON != "":
		img, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode b64_json: %w", err)
		}
		if len(img) == 0 {
			return nil, ErrEmptyResponse
		}
		return img, nil
	case first.URL != "":
		return c.fetch(ctx, first.URL)
	default:
		return nil, ErrEmptyResponse
	}
}

func (c *Client) encodeForm(in Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"model", c.model},
		{"prompt", in.Prompt},
		{"n", "1"},
		{"size", c.size},
		{"background", c.background},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	filename := in.Filename
	if filename == "" {
		filename = "photo"
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(in.Image); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch generated image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch generated image http error (%d)", resp.StatusCode)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read generated image: %w", err)
	}
	if len(img) == 0 {
		return nil, ErrEmptyResponse
	}
	return img, nil
}
