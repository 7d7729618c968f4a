package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ImgBBService uploads base64-encoded images to the ImgBB hosting API and
// returns public URLs. Both complaint photos and verification proofs go
// through it.
type ImgBBService struct {
	apiKey string
	client *http.Client
}

// NewImgBBService creates a new ImgBBService.
func NewImgBBService(apiKey string) *ImgBBService {
	return &ImgBBService{
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// ErrImgBBNotConfigured is returned when an upload is attempted without an
// API key.
var ErrImgBBNotConfigured = errors.New("imgbb api key not configured")

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload posts a base64 image and returns the hosted URL.
func (s *ImgBBService) Upload(imageBase64 string) (string, error) {
	if s.apiKey == "" {
		return "", ErrImgBBNotConfigured
	}

	endpoint := fmt.Sprintf("https://api.imgbb.com/1/upload?key=%s", url.QueryEscape(s.apiKey))

	form := url.Values{}
	form.Set("image", imageBase64)

	resp, err := s.client.PostForm(endpoint, form)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	if !parsed.Success || parsed.Data.URL == "" {
		return "", fmt.Errorf("imgbb upload failed with status %d", resp.StatusCode)
	}

	return parsed.Data.URL, nil
}
