package proforma

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"shrimpquote_backend/platform/config"
)

// Gotenberg converts the rendered proforma HTML to PDF.
type Gotenberg struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

func NewGotenberg(cfg config.GotenbergConfig) *Gotenberg {
	if !cfg.IsGotenbergEnabled() {
		return nil
	}
	return &Gotenberg{
		baseURL:  cfg.GetGotenbergURL(),
		username: cfg.GetGotenbergUsername(),
		password: cfg.GetGotenbergPassword(),
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// ConvertHTML sends index.html (plus an optional footer.html) to Gotenberg
// and returns the PDF bytes.
func (g *Gotenberg) ConvertHTML(ctx context.Context, indexHTML, footerHTML []byte) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("gotenberg is not configured")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"paperWidth":      "8.27",
		"paperHeight":     "11.7",
		"marginTop":       "0.4",
		"marginBottom":    "0.6",
		"marginLeft":      "0.4",
		"marginRight":     "0.4",
		"printBackground": "true",
		"waitDelay":       "1s",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := addHTMLPart(writer, "index.html", indexHTML); err != nil {
		return nil, err
	}
	if len(footerHTML) > 0 {
		if err := addHTMLPart(writer, "footer.html", footerHTML); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if g.username != "" && g.password != "" {
		req.SetBasicAuth(g.username, g.password)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotenberg convert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gotenberg returned %d: %s", resp.StatusCode, string(errBody))
	}
	return io.ReadAll(resp.Body)
}

func addHTMLPart(w *multipart.Writer, filename string, content []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, filename))
	h.Set("Content-Type", "text/html")

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", filename, err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write part %s: %w", filename, err)
	}
	return nil
}
