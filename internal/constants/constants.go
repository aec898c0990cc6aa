package constants

// 捐赠生命周期状态常量（按流程顺序）
const (
	DonationStatusSubmitted       = "SUBMITTED"
	DonationStatusConfirmed       = "CONFIRMED"
	DonationStatusPickupScheduled = "PICKUP_SCHEDULED"
	DonationStatusPickedUp        = "PICKED_UP"
	DonationStatusInTransit       = "IN_TRANSIT"
	DonationStatusDelivered       = "DELIVERED"
	DonationStatusCompleted       = "COMPLETED"
	DonationStatusCancelled       = "CANCELLED"
)

// 操作者角色常量
const (
	ActorRoleDonor    = "donor"
	ActorRoleOperator = "operator"
	ActorRoleAdmin    = "admin"
)

// 地区常量
const (
	DefaultState = "Kerala"
)

// 上传场景常量
const (
	UploadSceneDonation = "donations"
)

// 默认品类（关键词未命中时）
const (
	DefaultDonationCategory = "Household Items"
)

// 队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskDonationStatusEmail = "donation:status_email"
	TaskDonationOtpEmail    = "donation:otp_email"
)

// Redis 键前缀常量
const (
	RedisPrefixDefault = "donatehub"

	RedisKeyTrackingView = "tracking_view"
	RedisKeyOtpAttempts  = "otp_attempts"
	RedisKeyIdempotency  = "idempotency"
)

// 请求头常量
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)
