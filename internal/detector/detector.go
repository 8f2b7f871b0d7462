package detector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"traffic-analytics-service/internal/model"
)

type Kind string

const (
	KindDisabled Kind = "disabled"
	KindHTTP     Kind = "http"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDisabled, KindHTTP:
		return true
	default:
		return false
	}
}

var ErrUnavailable = errors.New("detector unavailable")

// Detector counts vehicles in a stored video.
type Detector interface {
	Detect(ctx context.Context, video model.Video) (model.DetectionResult, error)
}

func New(kind Kind, url string, timeout time.Duration) (Detector, error) {
	switch kind {
	case KindDisabled, "":
		return disabled{}, nil
	case KindHTTP:
		if url == "" {
			return nil, fmt.Errorf("detector: url is required for kind %q", kind)
		}
		return NewHTTPDetector(url, timeout), nil
	default:
		return nil, fmt.Errorf("detector: unsupported kind %q", kind)
	}
}

type disabled struct{}

func (disabled) Detect(context.Context, model.Video) (model.DetectionResult, error) {
	return model.DetectionResult{}, fmt.Errorf("%w: detection is disabled", ErrUnavailable)
}
