package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

// Event is the closed union of webhook events the reconciliation engine
// consumes. Every other Stripe event type parses to Irrelevant, which a
// handler acknowledges without side effects.
type Event interface {
	// EventType returns the original Stripe event type string.
	EventType() string

	isEvent()
}

// CheckoutCompleted corresponds to checkout.session.completed.
type CheckoutCompleted struct {
	SubscriptionID string
	CustomerID     string
	Metadata       map[string]string
}

// SubscriptionUpdated corresponds to customer.subscription.updated.
// PreviousProductID is non-empty only when Stripe's previous_attributes show
// the subscription moved to a different product (a tier switch).
type SubscriptionUpdated struct {
	SubscriptionID    string
	CustomerID        string
	Status            string
	ProductID         string
	PreviousProductID string
	PriceID           string
	ItemID            string
}

// SubscriptionDeleted corresponds to customer.subscription.deleted.
type SubscriptionDeleted struct {
	SubscriptionID string
	CustomerID     string
}

// CustomerDeleted corresponds to customer.deleted.
type CustomerDeleted struct {
	CustomerID string
}

// Irrelevant is any event type the engine does not handle.
type Irrelevant struct {
	Type string
}

func (e CheckoutCompleted) EventType() string   { return "checkout.session.completed" }
func (e SubscriptionUpdated) EventType() string { return "customer.subscription.updated" }
func (e SubscriptionDeleted) EventType() string { return "customer.subscription.deleted" }
func (e CustomerDeleted) EventType() string     { return "customer.deleted" }
func (e Irrelevant) EventType() string          { return e.Type }

func (CheckoutCompleted) isEvent()   {}
func (SubscriptionUpdated) isEvent() {}
func (SubscriptionDeleted) isEvent() {}
func (CustomerDeleted) isEvent()     {}
func (Irrelevant) isEvent()          {}

// ParseEvent verifies the payload signature against the signing secret and
// narrows the event into the union. A missing signature header and a failed
// verification are distinct errors so callers can map them to 4xx responses.
func ParseEvent(payload []byte, sigHeader, webhookSecret string) (Event, error) {
	if sigHeader == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, webhookSecret)
	if err != nil {
		return nil, errors.Join(ErrSignatureInvalid, err)
	}

	return narrowEvent(event)
}

func narrowEvent(event stripe.Event) (Event, error) {
	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}

		out := CheckoutCompleted{Metadata: session.Metadata}
		if session.Subscription != nil {
			out.SubscriptionID = session.Subscription.ID
		}
		if session.Customer != nil {
			out.CustomerID = session.Customer.ID
		}
		return out, nil

	case "customer.subscription.updated":
		sub, err := unmarshalSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}

		out := SubscriptionUpdated{
			SubscriptionID: sub.ID,
			Status:         string(sub.Status),
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		if item := firstItem(sub); item != nil {
			out.ItemID = item.ID
			if item.Price != nil {
				out.PriceID = item.Price.ID
				if item.Price.Product != nil {
					out.ProductID = item.Price.Product.ID
				}
			}
		}
		out.PreviousProductID = previousProductID(event.Data.PreviousAttributes)
		return out, nil

	case "customer.subscription.deleted":
		sub, err := unmarshalSubscription(event.Data.Raw)
		if err != nil {
			return nil, err
		}
		out := SubscriptionDeleted{SubscriptionID: sub.ID}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		return out, nil

	case "customer.deleted":
		var cust stripe.Customer
		if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		return CustomerDeleted{CustomerID: cust.ID}, nil

	default:
		return Irrelevant{Type: string(event.Type)}, nil
	}
}

func unmarshalSubscription(raw json.RawMessage) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}
	if sub.ID == "" {
		return nil, errors.Join(ErrMalformedEvent, fmt.Errorf("subscription event without id"))
	}
	return &sub, nil
}

func firstItem(sub *stripe.Subscription) *stripe.SubscriptionItem {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

// previousProductID walks previous_attributes for items.data[0].price.product.
// Stripe only includes the items tree there when it changed, so a non-empty
// result signals a product (tier) switch.
func previousProductID(prev map[string]any) string {
	items, ok := prev["items"].(map[string]any)
	if !ok {
		return ""
	}
	data, ok := items["data"].([]any)
	if !ok || len(data) == 0 {
		return ""
	}
	item, ok := data[0].(map[string]any)
	if !ok {
		return ""
	}
	price, ok := item["price"].(map[string]any)
	if !ok {
		return ""
	}
	product, _ := price["product"].(string)
	return product
}
