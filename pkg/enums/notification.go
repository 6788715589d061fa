package enums

// NotificationType maps to the notification_type column.
type NotificationType string

const (
	NotificationTypeOrderStatus NotificationType = "order_status"
	NotificationTypePayment     NotificationType = "payment"
	NotificationTypeSystem      NotificationType = "system"
)

var notificationTypes = set[NotificationType]{
	NotificationTypeOrderStatus,
	NotificationTypePayment,
	NotificationTypeSystem,
}

func (n NotificationType) String() string { return string(n) }

func (n NotificationType) IsValid() bool { return notificationTypes.has(n) }

func ParseNotificationType(value string) (NotificationType, error) {
	return notificationTypes.parse("notification type", value)
}
