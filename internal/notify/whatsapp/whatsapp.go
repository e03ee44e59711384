// Package whatsapp sends operator notifications through the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/notify"
)

type Sink struct {
	baseURL       string
	phoneNumberID string
	token         string
	to            string
	client        *http.Client
}

func New(baseURL, phoneNumberID, token, to string) *Sink {
	return &Sink{
		baseURL:       strings.TrimRight(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		token:         token,
		to:            to,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Sink) Name() string { return "whatsapp" }

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (s *Sink) Deliver(ctx context.Context, lead models.Lead) error {
	msg := textMessage{MessagingProduct: "whatsapp", To: s.to, Type: "text"}
	msg.Text.Body = notify.OperatorMessage(lead)

	body, err := json.Marshal(msg)
	if err != nil {
		return notify.Permanent(fmt.Errorf("whatsapp: encode message: %w", err))
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return notify.Permanent(fmt.Errorf("whatsapp: build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err = fmt.Errorf("whatsapp: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	if resp.StatusCode/100 == 4 && resp.StatusCode != http.StatusTooManyRequests {
		return notify.Permanent(err)
	}
	return err
}
