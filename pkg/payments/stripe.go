package payments

import (
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway settles orders through Stripe Connect: the restaurant's
// Express account receives the funds, the platform keeps an application
// fee. The client is constructed once and injected, never global.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateAccount(email string) (*Account, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	acct, err := g.api.Accounts.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create connected account: %w", err)
	}
	return &Account{ID: acct.ID, ChargesEnabled: acct.ChargesEnabled}, nil
}

func (g *StripeGateway) GetAccount(accountID string) (*Account, error) {
	acct, err := g.api.Accounts.GetByID(accountID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve connected account: %w", err)
	}
	return &Account{ID: acct.ID, ChargesEnabled: acct.ChargesEnabled}, nil
}

func (g *StripeGateway) CreateAccountLink(accountID, refreshURL, returnURL string) (string, error) {
	link, err := g.api.AccountLinks.New(&stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create onboarding link: %w", err)
	}
	return link.URL, nil
}

func (g *StripeGateway) CreateCheckoutSession(params CheckoutParams) (*CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		ClientReferenceID: stripe.String(params.OrderNumber),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(params.ApplicationFeeCents),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(params.DestinationAccount),
			},
			Metadata: map[string]string{"order_number": params.OrderNumber},
		},
	}
	for _, item := range params.LineItems {
		sessionParams.LineItems = append(sessionParams.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(params.Currency),
				UnitAmount: stripe.Int64(item.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	sess, err := g.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	result := &CheckoutSession{ID: sess.ID, URL: sess.URL}
	if sess.PaymentIntent != nil {
		result.PaymentIntentID = sess.PaymentIntent.ID
	}
	return result, nil
}

// VerifyEvent checks the webhook signature before anything in the payload
// is trusted, then reduces the event to the fields the engine uses.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	event := &Event{ID: stripeEvent.ID, Type: string(stripeEvent.Type)}

	switch event.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session event: %w", err)
		}
		event.OrderNumber = sess.ClientReferenceID
		event.SessionID = sess.ID
		if sess.PaymentIntent != nil {
			event.PaymentIntentID = sess.PaymentIntent.ID
		}
	case EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(stripeEvent.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("failed to parse payment intent event: %w", err)
		}
		event.OrderNumber = intent.Metadata["order_number"]
		event.PaymentIntentID = intent.ID
	}

	return event, nil
}
