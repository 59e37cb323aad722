package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrDispatchInvalidInput indicates a missing destination or message.
	ErrDispatchInvalidInput = errors.New("dispatch: invalid input")
)

// DispatchResult carries everything the transport needs: the destination
// identifier, the plain message, and the ready-to-open deep link with the
// message URL-encoded into its text parameter.
type DispatchResult struct {
	Destination string
	Message     string
	DeepLink    string
}

// DispatchService turns a formatted order message into a wa.me deep link and
// hands it to the configured sink. Delivery is fire-and-forget: a sink
// failure is logged, never surfaced to the customer.
type DispatchService struct {
	destination string
	sink        DispatchSink
	logger      func(ctx context.Context, event string, fields map[string]any)
}

// DispatchServiceDeps wires dependencies for the dispatch service.
type DispatchServiceDeps struct {
	Destination string
	Sink        DispatchSink
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// NewDispatchService constructs a dispatch service for the given destination
// number.
func NewDispatchService(deps DispatchServiceDeps) (*DispatchService, error) {
	destination := strings.TrimSpace(deps.Destination)
	if destination == "" {
		return nil, errors.New("dispatch service: destination is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &DispatchService{
		destination: destination,
		sink:        deps.Sink,
		logger:      logger,
	}, nil
}

// Dispatch builds the deep link and forwards it to the sink when one is
// configured.
func (s *DispatchService) Dispatch(ctx context.Context, message string) (DispatchResult, error) {
	if strings.TrimSpace(message) == "" {
		return DispatchResult{}, ErrDispatchInvalidInput
	}
	result := DispatchResult{
		Destination: s.destination,
		Message:     message,
		DeepLink:    "https://wa.me/" + s.destination + "?text=" + encodeDeepLinkText(message),
	}
	if s.sink != nil {
		if err := s.sink.Dispatch(ctx, result.Destination, result.DeepLink); err != nil {
			s.logger(ctx, "dispatch.sink_failed", map[string]any{"destination": s.destination, "error": err.Error()})
		}
	}
	return result, nil
}

// encodeDeepLinkText percent-encodes the message for the text query
// parameter, using %20 for spaces as URL-component encoding does.
func encodeDeepLinkText(message string) string {
	return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}
