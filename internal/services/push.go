package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// RealtimePusher delivers a payload to the user's open connections, if any.
type RealtimePusher interface {
	PushToUser(userID uint, payload []byte)
}

// DevicePusher sends a push notification to a single device token.
type DevicePusher interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type FirebasePusher struct {
	client *messaging.Client
}

func NewFirebasePusher(ctx context.Context, projectID, credentialsPath string) (*FirebasePusher, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase messaging: %w", err)
	}

	return &FirebasePusher{client: client}, nil
}

func (p *FirebasePusher) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := p.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}
