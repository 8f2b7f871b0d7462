package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"traffic-analytics-service/internal/model"
)

const breakerFailureThreshold = 3

type detectRequest struct {
	VideoID    uuid.UUID  `json:"video_id"`
	FilePath   string     `json:"file_path"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
}

// HTTPDetector calls a remote detection service at POST {url}/detect.
type HTTPDetector struct {
	serviceURL string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[model.DetectionResult]
}

func NewHTTPDetector(serviceURL string, timeout time.Duration) *HTTPDetector {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPDetector{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[model.DetectionResult](gobreaker.Settings{
			Name:        "detector",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailureThreshold
			},
		}),
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, video model.Video) (model.DetectionResult, error) {
	result, err := d.breaker.Execute(func() (model.DetectionResult, error) {
		return d.call(ctx, video)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return model.DetectionResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, err
}

func (d *HTTPDetector) call(ctx context.Context, video model.Video) (model.DetectionResult, error) {
	body, err := json.Marshal(detectRequest{
		VideoID:    video.ID,
		FilePath:   video.FilePath,
		LocationID: video.LocationID,
	})
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("detector: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.serviceURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("detector: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.DetectionResult{}, fmt.Errorf("detector: service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result model.DetectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.DetectionResult{}, fmt.Errorf("detector: failed to decode response: %w", err)
	}
	if result.VideoID == uuid.Nil {
		result.VideoID = video.ID
	}
	if result.LocationID == nil {
		result.LocationID = video.LocationID
	}
	return result, nil
}
