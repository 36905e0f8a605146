// Package fcm adapts the push.Sender contract onto Firebase Cloud
// Messaging.
package fcm

import (
	"context"
	"errors"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"pushfan/internal/payload"
	"pushfan/internal/push"
)

type Config struct {
	// CredentialsFile points at a service-account JSON key. Empty means
	// application-default credentials.
	CredentialsFile string
	// ProjectID overrides the project inferred from credentials.
	ProjectID string
}

type Sender struct {
	client *messaging.Client
}

func New(ctx context.Context, cfg Config) (*Sender, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &Sender{client: client}, nil
}

func (s *Sender) SendMulticast(ctx context.Context, tokens []string, p payload.Payload) (*push.BatchOutcome, error) {
	if len(tokens) == 0 {
		return nil, errors.New("fcm: no tokens")
	}
	msg := &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: notification(p),
		Data:         p.Data,
		Android:      android(p),
		APNS:         apns(p),
	}
	if p.AnalyticsLabel != "" {
		msg.FCMOptions = &messaging.FCMOptions{AnalyticsLabel: p.AnalyticsLabel}
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, err
	}

	out := &push.BatchOutcome{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
		Results:      make([]push.DeliveryResult, 0, len(resp.Responses)),
	}
	// Responses are index-aligned with the submitted tokens.
	for i, r := range resp.Responses {
		dr := push.DeliveryResult{Token: tokens[i], Success: r.Success}
		if r.Error != nil {
			dr.Reason = r.Error.Error()
		}
		out.Results = append(out.Results, dr)
	}
	return out, nil
}

func (s *Sender) Send(ctx context.Context, token string, p payload.Payload) error {
	msg := &messaging.Message{
		Token:        token,
		Notification: notification(p),
		Data:         p.Data,
		Android:      android(p),
		APNS:         apns(p),
	}
	if p.AnalyticsLabel != "" {
		msg.FCMOptions = &messaging.FCMOptions{AnalyticsLabel: p.AnalyticsLabel}
	}
	_, err := s.client.Send(ctx, msg)
	return err
}

func notification(p payload.Payload) *messaging.Notification {
	return &messaging.Notification{Title: p.Title, Body: p.Body}
}

func android(p payload.Payload) *messaging.AndroidConfig {
	cfg := &messaging.AndroidConfig{
		Priority:    p.Android.Priority,
		CollapseKey: p.Android.CollapseKey,
		TTL:         p.Android.TTL,
		Notification: &messaging.AndroidNotification{
			ChannelID:             p.Android.ChannelID,
			DefaultSound:          p.Android.DefaultSound,
			Sticky:                p.Android.Sticky,
			LocalOnly:             p.Android.LocalOnly,
			DefaultVibrateTimings: p.Android.DefaultVibrate,
		},
	}
	if p.Android.Priority == "high" {
		cfg.Notification.Priority = messaging.PriorityHigh
	}
	if p.Android.Visibility == "public" {
		cfg.Notification.Visibility = messaging.VisibilityPublic
	}
	return cfg
}

func apns(p payload.Payload) *messaging.APNSConfig {
	badge := p.APNS.Badge
	return &messaging.APNSConfig{
		Headers: p.APNS.Headers,
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Alert: &messaging.ApsAlert{
					Title: p.Title,
					Body:  p.Body,
				},
				Sound:            p.APNS.Sound,
				Badge:            &badge,
				ContentAvailable: p.APNS.ContentAvailable,
				MutableContent:   p.APNS.MutableContent,
			},
		},
	}
}
