package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPGateway posts a form to an SMS provider. Any non-2xx is a failure.
type HTTPGateway struct {
	URL      string
	APIKey   string
	SenderID string
	Client   *http.Client
	Log      *slog.Logger
}

func NewHTTPGateway(apiURL, apiKey, senderID string, log *slog.Logger) *HTTPGateway {
	return &HTTPGateway{
		URL:      apiURL,
		APIKey:   apiKey,
		SenderID: senderID,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Log:      log,
	}
}

func (g *HTTPGateway) Deliver(ctx context.Context, msg Message) error {
	start := time.Now()

	form := url.Values{}
	form.Set("senderid", g.SenderID)
	form.Set("msgType", "text")
	form.Set("msg", msg.Body)
	form.Set("mobile", msg.Phone)
	form.Set("reference", msg.DeliveryID)
	form.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if g.APIKey != "" {
		req.Header.Set("apikey", g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms api error: status=%d response=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	g.Log.Debug("sms accepted by provider",
		"delivery_id", msg.DeliveryID, "phone", msg.Phone, "duration", time.Since(start))
	return nil
}
