package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"house-swap-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dispatcher records in-app notifications and fans them out to email,
// websocket and device push. Only the notification row is durable; every
// other channel is best-effort.
type Dispatcher struct {
	db       *gorm.DB
	mailer   Mailer
	realtime RealtimePusher
	device   DevicePusher
	log      logrus.FieldLogger
}

func NewDispatcher(db *gorm.DB, mailer Mailer, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		db:     db,
		mailer: mailer,
		log:    log,
	}
}

func (d *Dispatcher) AttachRealtime(p RealtimePusher) {
	d.realtime = p
}

func (d *Dispatcher) AttachDevicePush(p DevicePusher) {
	d.device = p
}

type notificationPayload struct {
	Type    string            `json:"type"`
	ID      uint              `json:"id"`
	Message string            `json:"message"`
	Link    string            `json:"link,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// Notify stores an unread notification for userID and pushes it to any
// connected client.
func (d *Dispatcher) Notify(ctx context.Context, userID uint, kind, message, link string, data map[string]string) (*models.Notification, error) {
	notification := models.Notification{
		UserID:  userID,
		Type:    kind,
		Message: message,
		Link:    link,
	}
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
		notification.Data = datatypes.JSON(raw)
	}

	if err := d.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	d.pushRealtime(notification, data)
	d.pushDevice(ctx, notification, data)

	return &notification, nil
}

// SendTransactionalEmail is fire-and-forget: failures are logged and dropped.
func (d *Dispatcher) SendTransactionalEmail(ctx context.Context, to, subject, body string) {
	if d.mailer == nil || to == "" {
		return
	}
	if err := d.mailer.Send(ctx, to, subject, body); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Warn("transactional email failed")
	}
}

// EmailUser looks up the user's address and sends a transactional email.
func (d *Dispatcher) EmailUser(ctx context.Context, userID uint, subject, body string) {
	var user models.User
	if err := d.db.WithContext(ctx).Select("id", "email").First(&user, userID).Error; err != nil {
		d.log.WithError(err).WithField("user_id", userID).Warn("cannot email user")
		return
	}
	d.SendTransactionalEmail(ctx, user.Email, subject, body)
}

// NotifyAndEmail is the side effect every match and booking transition
// triggers: one notification row plus one email to the same user.
func (d *Dispatcher) NotifyAndEmail(ctx context.Context, userID uint, kind, subject, message, link string, data map[string]string) {
	if _, err := d.Notify(ctx, userID, kind, message, link, data); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    kind,
		}).Error("failed to record notification")
	}
	d.EmailUser(ctx, userID, subject, message)
}

func (d *Dispatcher) pushRealtime(n models.Notification, data map[string]string) {
	if d.realtime == nil {
		return
	}
	payload, err := json.Marshal(notificationPayload{
		Type:    "notification",
		ID:      n.ID,
		Message: n.Message,
		Link:    n.Link,
		Data:    data,
	})
	if err != nil {
		d.log.WithError(err).Warn("failed to encode realtime notification")
		return
	}
	d.realtime.PushToUser(n.UserID, payload)
}

func (d *Dispatcher) pushDevice(ctx context.Context, n models.Notification, data map[string]string) {
	if d.device == nil {
		return
	}

	var user models.User
	if err := d.db.WithContext(ctx).Select("id", "push_token").First(&user, n.UserID).Error; err != nil {
		return
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}

	fields := map[string]string{
		"notification_id": strconv.FormatUint(uint64(n.ID), 10),
		"type":            n.Type,
		"link":            n.Link,
	}
	for k, v := range data {
		fields[k] = v
	}

	if err := d.device.Send(ctx, *user.PushToken, "House Swap", n.Message, fields); err != nil {
		d.log.WithError(err).WithField("user_id", n.UserID).Warn("device push failed")
	}
}
