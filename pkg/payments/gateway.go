package payments

// Gateway is the narrow slice of the payment processor the settlement
// flow needs. The Stripe implementation lives in stripe.go; tests use a
// fake.
type Gateway interface {
	CreateAccount(email string) (*Account, error)
	GetAccount(accountID string) (*Account, error)
	CreateAccountLink(accountID, refreshURL, returnURL string) (string, error)
	CreateCheckoutSession(params CheckoutParams) (*CheckoutSession, error)
	VerifyEvent(payload []byte, signature string) (*Event, error)
}

// Account is a connected sub-account: one restaurant's settlement
// destination on the processor side.
type Account struct {
	ID             string
	ChargesEnabled bool
}

type LineItem struct {
	Name        string
	AmountCents int64
	Quantity    int64
}

type CheckoutParams struct {
	OrderNumber         string
	Currency            string
	LineItems           []LineItem
	DestinationAccount  string
	ApplicationFeeCents int64
	SuccessURL          string
	CancelURL           string
}

type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
}

// Event is a verified webhook event reduced to the fields the order
// engine acts on.
type Event struct {
	ID              string
	Type            string
	OrderNumber     string
	SessionID       string
	PaymentIntentID string
}

// Event types the settlement adapter reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "payment_intent.payment_failed"
)
