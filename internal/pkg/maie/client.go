package maie

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/metrics"
	"bitbucket.org/airenas/maiebridge/internal/pkg/utils"
	"github.com/pkg/errors"
)

const (
	//DefaultURL is used when maie.api.url is not configured
	DefaultURL = "http://localhost:8000"
	//TextFeatures is a feature set sent with every process_text call
	TextFeatures = "summary"

	headerAPIKey  = "X-API-Key"
	healthTimeout = 5 * time.Second
)

//Client comunicates with MAIE transcription and summarization service
type Client struct {
	httpclient    *http.Client
	baseURL       string
	apiKey        string
	healthTimeout time.Duration
}

//NewClient creates a MAIE client from config
func NewClient() (*Client, error) {
	cmdapp.Config.SetDefault("maie.api.url", DefaultURL)
	urlStr, err := utils.GetURLFromConfig("maie.api.url")
	if err != nil {
		return nil, err
	}
	key := cmdapp.Config.GetString("maie.api.key")
	if key == "" {
		cmdapp.Log.Warn("No maie.api.key (MAIE_API_KEY) provided. Only health checks will work")
	}
	if err := metrics.Register(requestDur); err != nil {
		return nil, errors.Wrap(err, "Can't register metrics")
	}
	cmdapp.Log.Infof("MAIE url: %s", urlStr)
	return newClient(urlStr, key, &http.Client{}), nil
}

func newClient(baseURL, apiKey string, hc *http.Client) *Client {
	return &Client{httpclient: hc, baseURL: baseURL, apiKey: apiKey, healthTimeout: healthTimeout}
}

//Submit streams audio to MAIE as a multipart form and returns the task handle.
//The reader is consumed while the request is being sent, the payload is never held in memory whole
func (c *Client) Submit(ctx context.Context, audio io.Reader, fileName, templateID, features string) (*api.SubmitResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	urlStr := utils.URLJoin(c.baseURL, "v1", "process")
	cmdapp.Log.Infof("Sending audio '%s' to: %s", fileName, urlStr)

	pr, pw := io.Pipe()
	defer pr.Close()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(writer, audio, fileName, templateID, features))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, pr)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(headerAPIKey, c.apiKey)

	var res api.SubmitResponse
	if err := c.invoke(req, "submit", &res); err != nil {
		return nil, err
	}
	cmdapp.Log.Infof("Audio '%s' submitted, task ID: %s", fileName, res.TaskID)
	return &res, nil
}

func writeForm(writer *multipart.Writer, audio io.Reader, fileName, templateID, features string) error {
	if err := writer.WriteField("features", features); err != nil {
		return errors.Wrap(err, "Can't add features to request")
	}
	if templateID != "" {
		if err := writer.WriteField("template_id", templateID); err != nil {
			return errors.Wrap(err, "Can't add template_id to request")
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return errors.Wrap(err, "Can't add file to request")
	}
	if _, err = io.Copy(part, audio); err != nil {
		return errors.Wrap(err, "Can't add file to request")
	}
	return writer.Close()
}

//SubmitText sends text for summarization
func (c *Client) SubmitText(ctx context.Context, text, templateID string) (*api.SubmitResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	urlStr := utils.URLJoin(c.baseURL, "v1", "process_text")
	cmdapp.Log.Infof("Sending text (%d chars) to: %s", len([]rune(text)), urlStr)

	b, err := json.Marshal(api.TextRequest{Text: text, TemplateID: templateID, Features: TextFeatures})
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)

	var res api.SubmitResponse
	if err := c.invoke(req, "submitText", &res); err != nil {
		return nil, err
	}
	cmdapp.Log.Infof("Text submitted, task ID: %s", res.TaskID)
	return &res, nil
}

//GetStatus returns task status as provided by MAIE, the status label is not interpreted
func (c *Client) GetStatus(ctx context.Context, ID string) (*api.TaskStatus, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if ID == "" || ID == "." || ID == ".." {
		return nil, errors.Wrapf(ErrWrongTaskID, "'%s'", ID)
	}
	urlStr := utils.URLJoin(c.baseURL, "v1", "status") + "/" + url.PathEscape(ID)
	cmdapp.Log.Debugf("Get status: %s", urlStr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set(headerAPIKey, c.apiKey)

	var res api.TaskStatus
	if err := c.invoke(req, "status", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

//CheckHealth returns true if MAIE responds to /health with 2xx in 5s. It never fails
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, utils.URLJoin(c.baseURL, "health"), nil)
	if err != nil {
		cmdapp.Log.Warn("Can't prepare health request: ", err)
		return false
	}
	resp, err := c.httpclient.Do(req)
	if err != nil {
		observe("health", 0, start)
		cmdapp.Log.Warn("MAIE health check failed: ", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	observe("health", resp.StatusCode, start)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

//Healthy is a healthcheck.Check adapter for CheckHealth
func (c *Client) Healthy() error {
	if !c.CheckHealth(context.Background()) {
		return errors.New("MAIE is not healthy")
	}
	return nil
}

func (c *Client) invoke(req *http.Request, op string, res interface{}) error {
	start := time.Now()
	resp, err := c.httpclient.Do(req)
	if err != nil {
		observe(op, 0, start)
		cmdapp.Log.WithField("op", op).WithField("url", req.URL.String()).
			Errorf("MAIE request failed: %+v", errors.WithStack(err))
		return err
	}
	defer resp.Body.Close()
	observe(op, resp.StatusCode, start)
	if err := validateResponse(resp); err != nil {
		cmdapp.Log.WithField("op", op).Error(err)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		cmdapp.Log.WithField("op", op).Errorf("Can't decode MAIE response: %+v", errors.WithStack(err))
		return errors.Wrap(err, "Can't decode response")
	}
	return nil
}
