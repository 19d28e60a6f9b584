// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jannurey/botosafe-sub000/biometric"
	"github.com/jannurey/botosafe-sub000/models"
)

// APIError is a non-2xx answer from the election server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

// Client talks to the vote-casting API over HTTP. SessionVoter carries
// the kiosk's authenticated session identity, installed upstream by the
// campus SSO proxy.
type Client struct {
	BaseURL      string
	SessionVoter string
	HTTPClient   *http.Client
}

func NewClient(baseURL, sessionVoter string) *Client {
	return &Client{
		BaseURL:      baseURL,
		SessionVoter: sessionVoter,
		HTTPClient:   http.DefaultClient,
	}
}

func (c *Client) VerifyFace(ctx context.Context, electionID string, emb biometric.Embedding) (string, error) {
	var resp models.TokenResponse
	err := c.post(ctx, "/elections/"+electionID+"/verify-face",
		models.VerifyFaceRequest{Embedding: emb}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) RequestOtp(ctx context.Context, electionID string) error {
	return c.post(ctx, "/elections/"+electionID+"/otp/request", nil, nil)
}

func (c *Client) VerifyOtp(ctx context.Context, electionID, code string) (string, error) {
	var resp models.TokenResponse
	err := c.post(ctx, "/elections/"+electionID+"/otp/verify",
		models.VerifyOtpRequest{Code: code}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// SubmitBallot casts the ballot authorized by token.
func (c *Client) SubmitBallot(ctx context.Context, electionID, token string, choices map[string]int) (string, error) {
	body, err := json.Marshal(models.SubmitBallotRequest{Choices: choices})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/elections/"+electionID+"/ballots", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Vote-Token", token)

	var resp models.SubmitBallotResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.EnvelopeID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Voter", c.SessionVoter)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var apiErr models.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		return &APIError{Status: res.StatusCode, Message: apiErr.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
