package dispatcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/phambaophuc/image-editor/internal/models"
)

const healthPath = "/api/process/test"

// HealthCheck calls the processing service's test endpoint.
func (d *HTTPDispatcher) HealthCheck(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+healthPath, nil)
	if err != nil {
		return models.Unhealthy(err.Error())
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return models.Unhealthy(err.Error())
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Unhealthy(fmt.Sprintf("status %d", resp.StatusCode))
	}
	return models.HealthHealthy
}
