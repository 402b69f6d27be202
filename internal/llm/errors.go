package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrRateLimited indicates the backend rejected the call for quota reasons.
// Callers use it to enter the cooldown path instead of failing the session.
var ErrRateLimited = errors.New("rate limited by generation backend")

// APIError is a non-2xx response from the Gemini API.
type APIError struct {
	HTTPStatus int
	Status     string // e.g. RESOURCE_EXHAUSTED
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini: %s: %s (http %d)", e.Status, e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("gemini: http %d: %s", e.HTTPStatus, e.Message)
}

// Is lets errors.Is(err, ErrRateLimited) match quota failures.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.rateLimited()
}

func (e *APIError) rateLimited() bool {
	return e.HTTPStatus == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	apiErr := &APIError{HTTPStatus: resp.StatusCode}

	var parsed geminiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Status = parsed.Error.Status
		apiErr.Message = parsed.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

// UserFacingMessage maps a backend failure to the text shown to the
// candidate, localized to the session language. These strings double as the
// error sentinels the response parser recognizes.
func UserFacingMessage(err error, lang string) string {
	indonesian := lang == "id"

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if strings.Contains(apiErr.Message, "API key not valid") {
			if indonesian {
				return "Kesalahan Konfigurasi Server: Kunci API tidak valid."
			}
			return "Server Configuration Error: The API Key is not valid."
		}
		if apiErr.rateLimited() {
			if indonesian {
				return "Batas permintaan tercapai. Silakan coba lagi nanti."
			}
			return "Rate limit exceeded. Please try again later."
		}
	}
	if errors.Is(err, ErrRateLimited) {
		if indonesian {
			return "Batas permintaan tercapai. Silakan coba lagi nanti."
		}
		return "Rate limit exceeded. Please try again later."
	}

	if indonesian {
		return "Terjadi kesalahan tak terduga di server."
	}
	return "An unexpected error occurred on the server."
}
