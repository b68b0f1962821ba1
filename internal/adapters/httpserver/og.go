package httpserver

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/skinstore/internal/domain"
)

var ogTemplate = template.Must(template.New("og").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<meta property="og:type" content="{{.Type}}">
<meta property="og:site_name" content="{{.SiteName}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.URL}}">
{{if .Image}}<meta property="og:image" content="{{.Image}}">
{{end}}{{if .Price}}<meta property="product:price:amount" content="{{.Price}}">
<meta property="product:price:currency" content="{{.Currency}}">
{{end}}<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
{{if .Image}}<meta name="twitter:image" content="{{.Image}}">
{{end}}<link rel="canonical" href="{{.URL}}">
{{if .LD}}<script type="application/ld+json">{{.LD}}</script>
{{end}}<meta http-equiv="refresh" content="0; url={{.URL}}">
</head>
<body><a href="{{.URL}}">{{.Title}}</a></body>
</html>
`))

type ogPage struct {
	Type        string
	SiteName    string
	Title       string
	Description string
	URL         string
	Image       string
	Price       string
	Currency    string
	LD          map[string]any
}

const ogDescriptionMax = 200

func (s *Server) brandPage() ogPage {
	return ogPage{
		Type:        "website",
		SiteName:    s.Brand.Name,
		Title:       s.Brand.Name,
		Description: s.Brand.Description,
		URL:         s.Brand.BaseURL + "/",
		Image:       s.Brand.Image,
	}
}

func (s *Server) productPage(p *domain.Product) ogPage {
	pg := s.brandPage()
	url := s.Brand.BaseURL + "/product/" + p.ID.String()
	pg.Type = "product"
	pg.Title = p.Name
	if s.Brand.Name != "" {
		pg.Title = p.Name + " | " + s.Brand.Name
	}
	if d := summarize(p.Description); d != "" {
		pg.Description = d
	}
	pg.URL = url
	if p.ImageURL != "" {
		pg.Image = p.ImageURL
	}
	pg.Price = strconv.FormatFloat(p.Price, 'f', 2, 64)
	pg.Currency = s.Currency

	availability := "https://schema.org/InStock"
	if p.AvailableStock() <= 0 {
		availability = "https://schema.org/OutOfStock"
	}
	ld := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        p.Name,
		"description": pg.Description,
		"sku":         p.ID.String(),
		"offers": map[string]any{
			"@type":         "Offer",
			"price":         pg.Price,
			"priceCurrency": s.Currency,
			"availability":  availability,
			"url":           url,
		},
	}
	if pg.Image != "" {
		ld["image"] = pg.Image
	}
	if p.Brand != "" {
		ld["brand"] = map[string]any{"@type": "Brand", "name": p.Brand}
	}
	pg.LD = ld
	return pg
}

func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > ogDescriptionMax {
		return strings.TrimSpace(string(r[:ogDescriptionMax-1])) + "…"
	}
	return s
}

// handleOGProduct serves link-preview markup. Scrapers get a 200 whatever
// happens; anything that goes wrong degrades to the store's branding.
func (s *Server) handleOGProduct(w http.ResponseWriter, r *http.Request) {
	pg := s.brandPage()
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		p, err := s.Products.Get(r.Context(), id)
		if err == nil {
			pg = s.productPage(p)
		} else {
			log.Debug().Err(err).Str("id", id).Msg("og preview falls back to branding")
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if err := ogTemplate.Execute(w, pg); err != nil {
		log.Error().Err(err).Msg("render og page")
	}
}
