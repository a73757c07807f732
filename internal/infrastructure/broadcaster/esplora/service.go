// Package esplora broadcasts transactions through an esplora REST API.
package esplora

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const defaultTimeout = 30 * time.Second

type service struct {
	apiURL string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewService returns a ports.Broadcaster talking to the esplora instance at
// apiURL.
func NewService(apiURL string, timeout time.Duration) (ports.Broadcaster, error) {
	if len(apiURL) <= 0 {
		return nil, fmt.Errorf("missing esplora url")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &service{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		client: &http.Client{Timeout: timeout},
		cb:     circuitbreaker.NewCircuitBreaker("esplora"),
	}, nil
}

// Broadcast posts the hex encoded transaction and returns its txid. Requests
// fail fast while the circuit breaker is open.
func (s *service) Broadcast(ctx context.Context, txHex string) (string, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.broadcast(ctx, txHex)
	})
	if err != nil {
		return "", err
	}
	txid := res.(string)
	log.Debugf("broadcasted tx %s", txid)
	return txid, nil
}

func (s *service) broadcast(ctx context.Context, txHex string) (string, error) {
	url := fmt.Sprintf("%s/tx", s.apiURL)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, strings.NewReader(txHex),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("esplora: %s", strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
