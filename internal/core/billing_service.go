package core

import (
	"context"
	"net/url"
)

// billingService is a placeholder: subscriptions are sold elsewhere and the
// service only hands out a static upgrade link.
type billingService struct {
	subscribeURL string
}

// NewBillingService creates the placeholder BillingService.
func NewBillingService(subscribeURL string) BillingService {
	return &billingService{subscribeURL: subscribeURL}
}

// SubscriptionLink returns the upgrade link, prefilled with the email when
// one is known.
func (s *billingService) SubscriptionLink(ctx context.Context, email string) string {
	if email == "" {
		return s.subscribeURL
	}
	u, err := url.Parse(s.subscribeURL)
	if err != nil {
		return s.subscribeURL
	}
	q := u.Query()
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String()
}
