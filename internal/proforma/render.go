package proforma

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"shrimpquote_backend/internal/pricing"
)

//go:embed templates/*.html
var templateFS embed.FS

// labels holds the per-language captions of the proforma layout.
type labels struct {
	Title       string
	Date        string
	Client      string
	Destination string
	Product     string
	Size        string
	Glazing     string
	NetPrice    string
	FOBPrice    string
	Freight     string
	FinalPrice  string
	Terms       string
	Validity    string
}

var labelsByLanguage = map[string]labels{
	"es": {
		Title:       "PROFORMA DE EXPORTACIÓN",
		Date:        "Fecha",
		Client:      "Cliente",
		Destination: "Destino",
		Product:     "Producto",
		Size:        "Talla",
		Glazing:     "Glaseo",
		NetPrice:    "Precio neto",
		FOBPrice:    "Precio FOB",
		Freight:     "Flete",
		FinalPrice:  "Precio final",
		Terms:       "Término",
		Validity:    "Precios válidos por 7 días, sujetos a confirmación de disponibilidad.",
	},
	"en": {
		Title:       "EXPORT PROFORMA",
		Date:        "Date",
		Client:      "Client",
		Destination: "Destination",
		Product:     "Product",
		Size:        "Size",
		Glazing:     "Glazing",
		NetPrice:    "Net price",
		FOBPrice:    "FOB price",
		Freight:     "Freight",
		FinalPrice:  "Final price",
		Terms:       "Term",
		Validity:    "Prices valid for 7 days, subject to availability confirmation.",
	},
}

type renderItem struct {
	Product        string
	Size           string
	GlazingPercent int
	Term           string
	Unit           string
	Net            string
	FOB            string
	Freight        string
	Final          string
}

type renderData struct {
	L           labels
	Number      string
	Date        string
	ClientName  string
	Destination string
	Items       []renderItem
	ShowFreight bool
}

// renderHTML produces the proforma body for Gotenberg.
func renderHTML(payload RenderPayload) ([]byte, error) {
	l, ok := labelsByLanguage[payload.Language]
	if !ok {
		l = labelsByLanguage["es"]
	}

	data := renderData{
		L:           l,
		Number:      proformaNumber(payload.JobID),
		Date:        time.Now().UTC().Format("2006-01-02"),
		ClientName:  payload.ClientName,
		Destination: payload.Destination,
	}

	for _, q := range payload.Quotes {
		series := q.Published()
		unit := "kg"
		if q.UsesPounds {
			unit = "lb"
		}
		item := renderItem{
			Product:        q.Product,
			Size:           q.Size,
			GlazingPercent: int(pricing.Round2(1-q.GlazingFactor) * 100),
			Term:           string(q.Term),
			Unit:           unit,
			Net:            fmt.Sprintf("$%.2f", series.Net),
			FOB:            fmt.Sprintf("$%.2f", series.FOBWithGlazing),
			Final:          fmt.Sprintf("$%.2f", series.Final),
		}
		if q.FreightIncluded {
			item.Freight = fmt.Sprintf("$%.2f", q.PublishedFreight())
			data.ShowFreight = true
		}
		data.Items = append(data.Items, item)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/proforma.html")
	if err != nil {
		return nil, fmt.Errorf("parse proforma template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render proforma: %w", err)
	}
	return buf.Bytes(), nil
}

// renderFooter builds the page footer, embedding a QR code that links to
// the archived document when a link is available.
func renderFooter(number, link string) ([]byte, error) {
	// html/template rejects data: URLs in src attributes, so the QR is
	// passed as a pre-approved template.URL.
	var qrImg template.URL
	if link != "" {
		png, err := qrcode.Encode(link, qrcode.Medium, 96)
		if err != nil {
			return nil, fmt.Errorf("encode qr: %w", err)
		}
		qrImg = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}

	tmpl, err := template.ParseFS(templateFS, "templates/footer.html")
	if err != nil {
		return nil, fmt.Errorf("parse footer template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct {
		Number string
		QR     template.URL
	}{Number: number, QR: qrImg}); err != nil {
		return nil, fmt.Errorf("render footer: %w", err)
	}
	return buf.Bytes(), nil
}

func proformaNumber(jobID string) string {
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return "PRO-" + short
}
