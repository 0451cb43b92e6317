// Package whatsapp is the outbound delivery adapter. A nil client is a
// valid no-op so local development works without a gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/logger"
	"shrimpquote_backend/platform/phone"
)

type Client struct {
	baseURL  string
	user     string
	password string
	deviceID string
	http     *http.Client
	log      *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if !cfg.IsWhatsAppEnabled() {
		return nil
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.GetWhatsAppBaseURL(), "/"),
		user:     cfg.GetWhatsAppUser(),
		password: cfg.GetWhatsAppPassword(),
		deviceID: cfg.GetWhatsAppDeviceID(),
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// SendMessage delivers a plain text reply.
func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	payload := gowaRequest{
		Phone:   gatewayPhone(phoneNumber),
		Message: message,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/message", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	if err := c.do(req); err != nil {
		return err
	}
	c.log.Info("whatsapp text sent", "phone", payload.Phone)
	return nil
}

// SendDocument delivers a file attachment, typically the proforma PDF.
func (c *Client) SendDocument(ctx context.Context, phoneNumber, caption, filename string, data []byte) error {
	if c == nil {
		return nil
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("phone", gatewayPhone(phoneNumber)); err != nil {
		return err
	}
	if caption != "" {
		if err := form.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/file", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	if err := c.do(req); err != nil {
		return err
	}
	c.log.Info("whatsapp document sent", "phone", gatewayPhone(phoneNumber), "file", filename)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.user != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(c.user + ":" + c.password))
		req.Header.Set("Authorization", "Basic "+credentials)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// gatewayPhone strips the leading "+" the gateway rejects.
func gatewayPhone(phoneNumber string) string {
	return strings.TrimPrefix(phone.NormalizeE164(phoneNumber), "+")
}
