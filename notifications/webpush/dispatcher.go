package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/draftcast/draftcast/notifications/domain"
)

// Dispatcher delivers Web Push notifications signed with the service's
// VAPID key pair.
type Dispatcher struct {
	subscriber string
	publicKey  string
	privateKey string
	ttl        int
}

func NewDispatcher(subscriber, publicKey, privateKey string) *Dispatcher {
	return &Dispatcher{
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		ttl:        3600,
	}
}

// Configured reports whether a VAPID key pair is available. Without one the
// dispatcher refuses to send rather than failing per delivery.
func (d *Dispatcher) Configured() bool {
	return d.publicKey != "" && d.privateKey != ""
}

func (d *Dispatcher) Send(ctx context.Context, target domain.Target, msg domain.Message) error {
	if !d.Configured() {
		return fmt.Errorf("web push not configured: missing VAPID keys")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	sub := &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.P256dhKey,
			Auth:   target.AuthKey,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      d.subscriber,
		VAPIDPublicKey:  d.publicKey,
		VAPIDPrivateKey: d.privateKey,
		TTL:             d.ttl,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
