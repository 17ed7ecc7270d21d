package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	xhttp "WxEdge/pkg/http"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// retryable reports whether a fetch error is worth another attempt.
// Rate limits and server errors are transient; 4xx responses are not.
func retryable(err error) bool {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	// Transport errors (timeouts, resets) are retryable.
	return true
}

// fetchWithResilience runs the request through the circuit breaker with
// retries and exponential backoff, decoding the response into dest.
func fetchWithResilience(
	ctx context.Context,
	client *xhttp.Client,
	cb *gobreaker.CircuitBreaker,
	backoff BackoffConfig,
	opts *xhttp.RequestOptions,
	dest interface{},
) error {
	if backoff.MaxRetries < 0 || backoff.InitialInterval <= 0 {
		return errInvalidConfig
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := cb.Execute(func() (interface{}, error) {
			return nil, client.SendAndParse(ctx, opts, dest)
		})

		if err == nil {
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if !retryable(err) || attempt >= backoff.MaxRetries {
			return lastErr
		}

		delay := backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if backoff.MaxInterval > 0 && delay > backoff.MaxInterval {
			delay = backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}
