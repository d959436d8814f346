package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the shopper pays for an order.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCashOnDelivery PaymentMethod = "cod"
	PaymentMethodMobile         PaymentMethod = "mobile"
)

// CustomerDetails is the shipping and contact block of the checkout form.
type CustomerDetails struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentNumber string        `json:"paymentNumber,omitempty"`
	// PaymentIntentID links a card order to a confirmed payment intent.
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
}

// CheckoutSummary is the priced view of a session cart.
type CheckoutSummary struct {
	Items          []CartItem `json:"items"`
	ItemCount      int        `json:"itemCount"`
	Subtotal       float64    `json:"subtotal"`
	PromoCode      string     `json:"promoCode,omitempty"`
	PromoDiscount  float64    `json:"promoDiscount"`
	PromoEligible  bool       `json:"promoEligible"`
	Tax            float64    `json:"tax"`
	Shipping       float64    `json:"shipping"`
	Total          float64    `json:"total"`
	FreeShipping   bool       `json:"freeShipping"`
	MinOrderAmount float64    `json:"minOrderAmount,omitempty"`
}

// Order is a placed order. The storefront does not store orders; it
// reports them by email and as an order.placed event.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	Customer  CustomerDetails `json:"customer"`
	Summary   CheckoutSummary `json:"summary"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PaymentIntent is returned to the browser to complete a card payment.
type PaymentIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentIntentRequest carries optional receipt details for a payment intent.
type PaymentIntentRequest struct {
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
