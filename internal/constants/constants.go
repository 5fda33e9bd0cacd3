package constants

// 用户角色常量
const (
	RoleBuyer  = "buyer"
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// 订单项状态常量
const (
	ItemStatusPending   = "pending"
	ItemStatusConfirmed = "confirmed"
	ItemStatusCancelled = "cancelled"
	ItemStatusShipped   = "shipped"
	ItemStatusDelivered = "delivered"
)

// 订单支付状态常量
const (
	OrderPaymentStatusPending  = "pending"
	OrderPaymentStatusPaid     = "paid"
	OrderPaymentStatusFailed   = "failed"
	OrderPaymentStatusRefunded = "refunded"
)

// 支付单状态常量
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusCancelled  = "cancelled"
)

// 支付方式常量
const (
	PaymentMethodCard     = "card"
	PaymentMethodUPI      = "upi"
	PaymentMethodNetbank  = "netbanking"
	PaymentMethodDelivery = "cash_on_delivery"
)

// 提现状态常量
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusRejected   = "rejected"
)

// 提现方式常量
const (
	PayoutMethodBankTransfer = "bank_transfer"
	PayoutMethodUPI          = "upi"
)

// 商品状态常量
const (
	ProductStatusDraft    = "draft"
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
	ProductStatusSoldOut  = "sold_out"
)

// 销售台账条目类型常量
const (
	LedgerEntrySaleAccrual = "sale_accrual"
	LedgerEntryPayoutDebit = "payout_debit"
)

// 通知事件类型常量
const (
	NotificationOrderCreated   = "order_created"
	NotificationOrderAccepted  = "order_accepted"
	NotificationOrderRejected  = "order_rejected"
	NotificationOrderShipped   = "order_shipped"
	NotificationOrderDelivered = "order_delivered"
	NotificationOrderCancelled = "order_cancelled"
	NotificationPaymentUpdated = "payment_updated"
	NotificationPayoutUpdated  = "payout_updated"
)

// 队列与异步任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskNotificationDispatch = "notification:dispatch"
	TaskOrderTimeoutCancel   = "order:timeout_cancel"
)

// 诊断记录状态常量
const (
	DiagnosisStatusPending   = "pending"
	DiagnosisStatusCompleted = "completed"
	DiagnosisStatusFailed    = "failed"
)
