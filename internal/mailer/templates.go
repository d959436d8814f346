package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"storefront/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money":     formatMoney,
	"lineTotal": lineTotal,
}).ParseFS(templateFS, "templates/*.html"))

// OrderEmail is the data behind an order confirmation.
type OrderEmail struct {
	OrderID       string
	OrderDate     string
	CustomerName  string
	Email         string
	Phone         string
	Address       string
	City          string
	Items         []models.CartItem
	Subtotal      float64
	PromoCode     string
	PromoDiscount float64
	Tax           float64
	Shipping      float64
	Total         float64
	PaymentMethod string
	PaymentNumber string
}

// ContactEmail is the data behind a contact form notification.
type ContactEmail struct {
	Name        string
	Email       string
	Subject     string
	Message     string
	SubmittedAt string
}

func RenderOrderConfirmation(data OrderEmail) (string, error) {
	return render("order_confirmation.html", data)
}

func RenderContactForm(data ContactEmail) (string, error) {
	return render("contact_form.html", data)
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatMoney(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func lineTotal(price float64, quantity int) string {
	return formatMoney(price * float64(quantity))
}
