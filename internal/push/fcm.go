// Package push provides the Firebase Cloud Messaging delivery transport.
package push

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-faster/errors"
	"google.golang.org/api/option"

	"github.com/avelinak/atelier-shop/internal/domain/notify"
)

// FCM sends push messages through Firebase Cloud Messaging. A zero-value FCM
// (no credentials configured) is a valid, not-ready sender.
type FCM struct {
	client *messaging.Client
}

var _ notify.Sender = (*FCM)(nil)

// NewFCM initializes the Firebase app from a service account credentials
// file. An empty path yields a not-ready sender so the rest of the service
// can run without push configured.
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	if credentialsFile == "" {
		return &FCM{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initialize messaging client")
	}
	return &FCM{client: client}, nil
}

// Ready reports whether a messaging client was configured.
func (f *FCM) Ready() bool {
	return f.client != nil
}

// Send delivers one message to one device token.
func (f *FCM) Send(ctx context.Context, token string, msg notify.Message) error {
	m := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:        "default",
				ChannelID:    "orders",
				DefaultSound: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: intPtr(1),
				},
			},
		},
	}

	if _, err := f.client.Send(ctx, m); err != nil {
		return errors.Wrap(err, "send push message")
	}
	return nil
}

func intPtr(v int) *int { return &v }
