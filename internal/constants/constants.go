package constants

// 队列与任务
const (
	QueueDefault    = "default"
	TaskOrderPlaced = "order:placed"
)

// gin 上下文 key
const (
	ContextKeyRequestID = "request_id"
	ContextKeySessionID = "session_id"
	ContextKeySession   = "shopper_session"
)

// 请求头
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderSessionToken   = "X-Session-Token"
)

// 验证码场景
const (
	CaptchaSceneRegister = "register"
	CaptchaSceneContact  = "contact"
)

// 商品列表排序
const (
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_low"
	ProductSortPriceDesc = "price_high"
	ProductSortName      = "name_asc"
)

// 联系表单默认主题
const ContactDefaultSubject = "General Inquiry"
