// Package motivation generates a short personalized line for the
// dashboard. It is strictly optional enrichment: any failure or missing
// configuration yields an empty string, never an error the caller has
// to handle.
package motivation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel   = "gemini-3-flash-preview"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewClient returns a client. An empty apiKey is valid and produces a
// client that always answers "".
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		http:    &http.Client{Timeout: 8 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// PersonalizedMotivation returns a short Arabic motivational sentence
// for the given habit and day, or "" when anything goes wrong.
func (c *Client) PersonalizedMotivation(ctx context.Context, habit string, day int) string {
	if c.apiKey == "" {
		return ""
	}

	prompt := fmt.Sprintf(
		"You are a supportive habit coach speaking Arabic.\n"+
			"The user is on Day %d of a 21-day challenge to build the habit: %q.\n"+
			"Provide a very short, punchy, and inspiring motivational sentence in Arabic (maximum 15 words).\n"+
			"Do not use quotes. Speak directly to the user.",
		day, habit,
	)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		log.Printf("motivation: failed to encode request: %v", err)
		return ""
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("motivation: failed to build request: %v", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("motivation: request failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("motivation: unexpected status %d", resp.StatusCode)
		return ""
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Printf("motivation: failed to parse response: %v", err)
		return ""
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
}
