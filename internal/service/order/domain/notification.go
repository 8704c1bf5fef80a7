// internal/service/order/domain/notification.go
package domain

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationOrderPlaced    NotificationType = "order"
	NotificationStatusChanged  NotificationType = "order_update"
	NotificationOrderCancelled NotificationType = "order_cancelled"
	NotificationOrderDeleted   NotificationType = "order_deleted"
	NotificationOrderUpdated   NotificationType = "order_updated"
)

// Notification 是用户收件箱中的一条消息，除已读标记外不可修改
type Notification struct {
	ID        uint
	UserID    uint
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}

func newNotification(userID uint, t NotificationType, title, message string) Notification {
	return Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      t,
		CreatedAt: time.Now(),
	}
}

func OrderPlacedNotification(o *Order) Notification {
	return newNotification(o.UserID, NotificationOrderPlaced, "New Order",
		fmt.Sprintf("Your order #%d has been placed and is now being processed.", o.ID))
}

func StatusChangedNotification(o *Order) Notification {
	return newNotification(o.UserID, NotificationStatusChanged, "Order Update",
		fmt.Sprintf("Your order #%d status has been updated to %s.", o.ID, o.Status))
}

func OrderCancelledNotification(o *Order) Notification {
	return newNotification(o.UserID, NotificationOrderCancelled, "Order Cancelled",
		fmt.Sprintf("Your order #%d has been cancelled.", o.ID))
}

func OrderDeletedNotification(o *Order) Notification {
	return newNotification(o.UserID, NotificationOrderDeleted, "Order Deleted",
		fmt.Sprintf("Your order #%d has been deleted.", o.ID))
}

func OrderUpdatedNotification(o *Order) Notification {
	return newNotification(o.UserID, NotificationOrderUpdated, "Order Updated",
		fmt.Sprintf("Your order #%d information has been updated.", o.ID))
}
