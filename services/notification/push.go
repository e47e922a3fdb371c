package notification

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// ErrNoPushToken is returned when the user never registered a device.
var ErrNoPushToken = errors.New("user has no push token")

// PushSender delivers a push notification to one device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCMSender sends through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return ErrNoPushToken
	}
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "sessions",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

// ExpoSender sends through the Expo push service.
type ExpoSender struct {
	client *expo.PushClient
}

func NewExpoSender(client *expo.PushClient) *ExpoSender {
	if client == nil {
		client = expo.NewPushClient(nil)
	}
	return &ExpoSender{client: client}
}

func (s *ExpoSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return ErrNoPushToken
	}
	pushToken, err := expo.NewExponentPushToken(token)
	if err != nil {
		return fmt.Errorf("invalid expo push token: %w", err)
	}
	response, err := s.client.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{pushToken},
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: expo.DefaultPriority,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish expo notification: %w", err)
	}
	if err := response.ValidateResponse(); err != nil {
		return fmt.Errorf("expo rejected notification: %w", err)
	}
	return nil
}
