package smsgateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ClientConfig struct {
	RootURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the remote SMS gateway. One contracted endpoint per
// operation; the gateway's credit ledger is authoritative, the local one is
// only a mirror.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

func NewClient(config ClientConfig) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type SendRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	LicenceID   string `json:"licenceId"`
	Emetteur    string `json:"emetteur,omitempty"`
	Cle         string `json:"cle,omitempty"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendSMS sends a single message. A non-2xx status or success=false in the
// response body is a failure.
func (c *Client) SendSMS(req SendRequest) error {
	if c.config.RootURL == "" {
		return errors.New("connection to sms gateway not initialized")
	}
	if req.Cle == "" {
		req.Cle = c.config.APIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.config.RootURL+"/v1/send-sms", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Api-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("sms gateway returned error", slog.String("status", resp.Status))
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var res sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		slog.Error("error decoding sms gateway response", slog.String("error", err.Error()))
		return err
	}
	if !res.Success {
		if res.Error == "" {
			res.Error = "send rejected by gateway"
		}
		slog.Error("sms gateway rejected message", slog.String("error", res.Error))
		return errors.New(res.Error)
	}
	return nil
}

type creditsResponse struct {
	Credits *int `json:"credits"`
}

// GetRemainingCredits fetches the authoritative credit balance for a licence.
// The second return value reports whether the gateway actually returned a
// numeric balance.
func (c *Client) GetRemainingCredits(licenceID string) (int, bool, error) {
	if c.config.RootURL == "" {
		return 0, false, errors.New("connection to sms gateway not initialized")
	}

	url := fmt.Sprintf("%s/v1/licences/%s/credits", c.config.RootURL, licenceID)
	httpReq, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, false, err
	}
	if c.config.APIKey != "" {
		httpReq.Header.Set("Api-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, false, fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var res creditsResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return 0, false, err
	}
	if res.Credits == nil {
		slog.Warn("credit balance missing from gateway response", slog.String("licenceID", licenceID))
		return 0, false, nil
	}
	return *res.Credits, true, nil
}
