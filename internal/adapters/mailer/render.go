package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/google/uuid"

	"github.com/phenrril/skinstore/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var subjects = map[domain.EmailKind]string{
	domain.EmailOrderConfirmation:    "We received your order",
	domain.EmailShippingNotice:       "Your order has shipped",
	domain.EmailDeliveryConfirmation: "Your order was delivered",
}

var funcs = template.FuncMap{
	"money": func(currency string, v float64) string {
		return fmt.Sprintf("%s %.2f", currency, v)
	},
	"shortID": func(id uuid.UUID) string {
		s := id.String()
		return s[:8]
	},
}

var tmpl = template.Must(template.New("mail").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))

type view struct {
	Subject  string
	Brand    string
	Currency string
	Order    *domain.Order
}

// Renderer produces the subject and html body of the transactional emails.
type Renderer struct {
	Brand    string
	Currency string
}

func (r Renderer) Render(kind domain.EmailKind, o *domain.Order) (string, string, error) {
	if !kind.Valid() {
		return "", "", fmt.Errorf("%w: unknown email type %q", domain.ErrInvalidInput, kind)
	}
	if o == nil {
		return "", "", fmt.Errorf("%w: nil order", domain.ErrInvalidInput)
	}
	subject := subjects[kind]
	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, string(kind)+".html", view{
		Subject:  subject,
		Brand:    r.Brand,
		Currency: r.Currency,
		Order:    o,
	})
	if err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
