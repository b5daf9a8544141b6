package paypalwebhook

// PayPal webhook event types this service acts on. Everything else is
// acknowledged and dropped.
const (
	EventPaymentCaptureCompleted      = "PAYMENT.CAPTURE.COMPLETED"
	EventPaymentSaleCompleted         = "PAYMENT.SALE.COMPLETED"
	EventBillingSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventBillingSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
)

// Event is the subset of the PayPal webhook envelope the service reads.
type Event struct {
	ID           string   `json:"id"`
	EventType    string   `json:"event_type"`
	ResourceType string   `json:"resource_type"`
	Resource     Resource `json:"resource"`
}

// Resource carries the payment or subscription the event refers to. Payment
// events put the payer at resource.payer; subscription events put the
// subscriber at resource.subscriber.
type Resource struct {
	ID         string      `json:"id"`
	Payer      *Payer      `json:"payer,omitempty"`
	Subscriber *Subscriber `json:"subscriber,omitempty"`
	Amount     *Amount     `json:"amount,omitempty"`
}

type Payer struct {
	EmailAddress string `json:"email_address"`
}

type Subscriber struct {
	EmailAddress string `json:"email_address"`
}

type Amount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

// PayerEmail returns the buyer's address for payment events.
func (e *Event) PayerEmail() string {
	if e.Resource.Payer == nil {
		return ""
	}
	return e.Resource.Payer.EmailAddress
}

// SubscriberEmail returns the subscriber's address for billing events.
func (e *Event) SubscriberEmail() string {
	if e.Resource.Subscriber == nil {
		return ""
	}
	return e.Resource.Subscriber.EmailAddress
}
