package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService handles Firebase Cloud Messaging push notifications.
// A nil *FCMService disables pushes without touching callers.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(credentialsFile string) (*FCMService, error) {
	return newFCMService(option.WithCredentialsFile(credentialsFile))
}

// NewFCMServiceFromBase64 creates a new FCM service instance from
// base64-encoded credentials, for cloud deployments where uploading a
// credentials file is awkward.
func NewFCMServiceFromBase64(credentialsBase64 string) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMService(option.WithCredentialsJSON(credentialsJSON))
}

func newFCMService(opt option.ClientOption) (*FCMService, error) {
	ctx := context.Background()

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

// SendBookingAcceptedNotification tells the rider a driver accepted their
// booking and proposed a fare.
func (s *FCMService) SendBookingAcceptedNotification(token, bookingID string, proposedFare float64) error {
	return s.send(token, &messaging.Notification{
		Title: "Driver Found!",
		Body:  fmt.Sprintf("A driver accepted your booking and proposed a fare of %.2f. Confirm to lock it in.", proposedFare),
	}, map[string]string{
		"type":       "booking_accepted",
		"booking_id": bookingID,
		"fare":       fmt.Sprintf("%.2f", proposedFare),
	})
}

// SendRideStartedNotification tells the rider their ride is underway.
func (s *FCMService) SendRideStartedNotification(token, bookingID string) error {
	return s.send(token, &messaging.Notification{
		Title: "Ride Started",
		Body:  "Your ride is underway. Sit back and enjoy the trip.",
	}, map[string]string{
		"type":       "ride_started",
		"booking_id": bookingID,
	})
}

// SendBookingConfirmedNotification tells the driver the rider confirmed the fare.
func (s *FCMService) SendBookingConfirmedNotification(token, bookingID string) error {
	return s.send(token, &messaging.Notification{
		Title: "Booking Confirmed",
		Body:  "The rider confirmed your fare. Head to the pickup location.",
	}, map[string]string{
		"type":       "booking_confirmed",
		"booking_id": bookingID,
	})
}

func (s *FCMService) send(token string, notification *messaging.Notification, data map[string]string) error {
	if s == nil {
		return nil
	}
	ctx := context.Background()

	message := &messaging.Message{
		Token:        token,
		Notification: notification,
		Data:         data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending FCM message: %w", err)
	}

	log.Printf("✅ FCM notification sent: %s", response)
	return nil
}
