package maie

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

//ErrNoAPIKey indicates missing maie.api.key setting
var ErrNoAPIKey = errors.New("No MAIE API key configured (MAIE_API_KEY)")

//ErrWrongTaskID is returned for ids that can't be a single path segment
var ErrWrongTaskID = errors.New("Wrong task ID")

const maxErrBody = 64 * 1024

//HTTPError is returned when MAIE responds with non 2xx code
type HTTPError struct {
	Code   int
	Status string
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("MAIE API error: %d %s - %s", e.Code, e.Status, e.Body)
}

//IsHTTPCode checks if err is HTTPError with the code
func IsHTTPCode(err error, code int) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}

func validateResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	return &HTTPError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Body: string(bodyBytes)}
}
