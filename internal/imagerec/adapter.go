// Package imagerec submits images to an external classification service
// and normalizes the per-type response shapes into a uniform result list.
package imagerec

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Type selects the recognition endpoint.
type Type string

const (
	TypeGeneral  Type = "general"
	TypeAnimal   Type = "animal"
	TypePlant    Type = "plant"
	TypeDish     Type = "dish"
	TypeCar      Type = "car"
	TypeLandmark Type = "landmark"
)

// endpoints maps recognition types to their API paths.
var endpoints = map[Type]string{
	TypeGeneral:  "/rest/2.0/image-classify/v2/advanced_general",
	TypeAnimal:   "/rest/2.0/image-classify/v1/animal",
	TypePlant:    "/rest/2.0/image-classify/v1/plant",
	TypeDish:     "/rest/2.0/image-classify/v2/dish",
	TypeCar:      "/rest/2.0/image-classify/v1/car",
	TypeLandmark: "/rest/2.0/image-classify/v1/landmark",
}

// ParseType maps a user-supplied name to a recognition type.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	if t == "" {
		return TypeGeneral, nil
	}
	if _, ok := endpoints[t]; !ok {
		return "", fmt.Errorf("unknown recognition type %q", name)
	}
	return t, nil
}

// ResultItem is one normalized classification result. Immutable.
type ResultItem struct {
	Label       string
	Score       float64 // 0..1
	Year        string
	WikiURL     string
	Description string
}

// ServiceError is an error embedded in a service response payload.
// Code and message are surfaced verbatim.
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("recognition service error %d: %s", e.Code, e.Message)
}

// TransportError distinguishes a request that got no response from one
// that could not be set up at all.
type TransportError struct {
	Setup bool
	Err   error
}

func (e *TransportError) Error() string {
	if e.Setup {
		return fmt.Sprintf("request setup error: %v", e.Err)
	}
	return fmt.Sprintf("no response from recognition service: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Adapter submits images to the classification service.
type Adapter struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	retry      RetryConfig

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewAdapter creates an adapter. apiKey/apiSecret may be empty when the
// endpoint does not require token auth (e.g. a local proxy).
func NewAdapter(baseURL, apiKey, apiSecret string, timeout time.Duration) *Adapter {
	return &Adapter{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: DefaultRetryConfig(),
	}
}

// Classify validates the file at path, submits it to the endpoint for
// the given type and returns the normalized results. Validation errors
// are reported without any network call.
func (a *Adapter) Classify(ctx context.Context, path string, typ Type) ([]ResultItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read image file: %w", err)
	}
	if err := ValidateFile(filepath.Base(path), info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read image file: %w", err)
	}

	return a.ClassifyData(ctx, filepath.Base(path), data, typ)
}

// rawResponse covers the per-type payload variations: items may carry
// name or keyword, dish responses report probability as a string, and
// vehicle responses add a year.
type rawResponse struct {
	ErrorCode int       `json:"error_code"`
	ErrorMsg  string    `json:"error_msg"`
	ResultNum int       `json:"result_num"`
	Result    []rawItem `json:"result"`
}

type rawItem struct {
	Name        string     `json:"name"`
	Keyword     string     `json:"keyword"`
	Score       float64    `json:"score"`
	Probability string     `json:"probability"`
	Year        string     `json:"year"`
	Baike       *baikeInfo `json:"baike_info"`
}

type baikeInfo struct {
	URL         string `json:"baike_url"`
	Description string `json:"description"`
}

// ClassifyData is Classify for already-loaded file contents.
func (a *Adapter) ClassifyData(ctx context.Context, filename string, data []byte, typ Type) ([]ResultItem, error) {
	if err := ValidateFile(filename, int64(len(data))); err != nil {
		return nil, err
	}

	path, ok := endpoints[typ]
	if !ok {
		return nil, fmt.Errorf("unknown recognition type %q", typ)
	}

	endpoint := a.baseURL + path
	if a.apiKey != "" {
		token, err := a.ensureToken(ctx)
		if err != nil {
			return nil, err
		}
		endpoint += "?access_token=" + url.QueryEscape(token)
	}

	// The service expects raw base64 with no data-URI prefix.
	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Setup: true, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("recognition service returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse recognition response: %w", err)
	}

	if raw.ErrorCode != 0 {
		return nil, &ServiceError{Code: raw.ErrorCode, Message: raw.ErrorMsg}
	}

	return normalize(raw.Result), nil
}

// normalize maps the heterogeneous item shapes to ResultItems.
func normalize(items []rawItem) []ResultItem {
	out := make([]ResultItem, 0, len(items))
	for _, it := range items {
		label := it.Name
		if label == "" {
			label = it.Keyword
		}
		if label == "" {
			label = "unknown object"
		}

		score := it.Score
		if score == 0 && it.Probability != "" {
			if p, err := strconv.ParseFloat(it.Probability, 64); err == nil {
				score = p
			}
		}

		item := ResultItem{
			Label: label,
			Score: score,
			Year:  it.Year,
		}
		if it.Baike != nil {
			item.WikiURL = it.Baike.URL
			item.Description = it.Baike.Description
		}
		out = append(out, item)
	}
	return out
}

// tokenResponse is the OAuth client-credentials payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// ensureToken returns a cached access token, refreshing it when absent
// or expired.
func (a *Adapter) ensureToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.token != "" && time.Now().Before(a.tokenExpiry) {
		token := a.token
		a.mu.Unlock()
		return token, nil
	}
	a.mu.Unlock()

	tok, err := retryWithBackoff(ctx, a.retry, func() (tokenResponse, error) {
		return a.fetchToken(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}

	a.mu.Lock()
	a.token = tok.AccessToken
	// Refresh a minute early to avoid using a token at its expiry edge.
	a.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	a.mu.Unlock()

	return tok.AccessToken, nil
}

func (a *Adapter) fetchToken(ctx context.Context) (tokenResponse, error) {
	params := url.Values{}
	params.Set("grant_type", "client_credentials")
	params.Set("client_id", a.apiKey)
	params.Set("client_secret", a.apiSecret)

	endpoint := a.baseURL + "/oauth/2.0/token?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, nil)
	if err != nil {
		return tokenResponse{}, &TransportError{Setup: true, Err: err}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return tokenResponse{}, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.Error != "" {
		return tokenResponse{}, fmt.Errorf("token request rejected: %s (%s)", tok.Error, tok.ErrorDesc)
	}
	if tok.AccessToken == "" {
		return tokenResponse{}, fmt.Errorf("token response carried no access token")
	}

	return tok, nil
}
