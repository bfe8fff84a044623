package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

const imgbbEndpoint = "https://api.imgbb.com/1/upload"

// ImgbbService uploads images to the imgbb hosting API with a simple
// keyed multipart POST.
type ImgbbService struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewImgbbService(apiKey string) *ImgbbService {
	return &ImgbbService{
		apiKey:     apiKey,
		endpoint:   imgbbEndpoint,
		httpClient: http.DefaultClient,
	}
}

func (s *ImgbbService) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("imgbb api key is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("key", s.apiKey); err != nil {
		return "", fmt.Errorf("write key field: %w", err)
	}
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write image content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("imgbb upload failed with status %d", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode imgbb response: %w", err)
	}
	if parsed.Data.URL == "" {
		return "", fmt.Errorf("imgbb response carried no url")
	}
	return parsed.Data.URL, nil
}
