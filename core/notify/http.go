package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
)

// DefaultHTTPTimeout bounds a single HTTP notification.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPSender posts results to subscriber endpoints.
type HTTPSender struct {
	client *http.Client
	log    logger.Logger
}

// NewHTTPSender creates a sender whose requests time out after timeout.
func NewHTTPSender(timeout time.Duration, log logger.Logger) *HTTPSender {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPSender{client: &http.Client{Timeout: timeout}, log: log}
}

// Endpoint builds the target URL from the notify properties.
func Endpoint(protocol model.NotifyProtocol, props map[string]string) string {
	p := props[model.PropPath]
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme: strings.ToLower(string(protocol)),
		Host:   net.JoinHostPort(props[model.PropAddress], props[model.PropPort]),
		Path:   p,
	}
	return u.String()
}

// Send issues one request carrying body. Transport errors and non 2xx
// answers are reported as ErrDeliveryFailed.
func (h *HTTPSender) Send(ctx context.Context, sub model.Subscription, props map[string]string, body []byte) error {
	target := Endpoint(sub.NotifyProtocol, props)
	method := strings.ToUpper(props[model.PropMethod])
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: subscription %s: build request: %v", ErrDeliveryFailed, sub.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: subscription %s: %v", ErrDeliveryFailed, sub.ID, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: subscription %s: %s %s answered %s", ErrDeliveryFailed, sub.ID, method, target, res.Status)
	}
	h.log.Debugf("%s %s -> %d", method, target, res.StatusCode)
	return nil
}
