package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	TxTypeDeposit    = "DEPOSIT"
	TxTypeWithdrawal = "WITHDRAWAL"
)

const (
	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusFailed    = "FAILED"
	TxStatusCancelled = "CANCELLED"
)

const (
	TxProviderManual  = "MANUAL"
	TxProviderSwapuzi = "SWAPUZI"
)

const (
	InvestmentStatusActive    = "ACTIVE"
	InvestmentStatusCompleted = "COMPLETED"
	InvestmentStatusCancelled = "CANCELLED"
)

const ReferralStatusActive = "ACTIVE"

const (
	PaymentMethodCrypto  = "CRYPTO"
	PaymentMethodBank    = "BANK"
	PaymentMethodGateway = "GATEWAY"
)

const (
	ClassStatusScheduled = "SCHEDULED"
	ClassStatusCompleted = "COMPLETED"
	ClassStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

const (
	BotRequestPending  = "PENDING"
	BotRequestApproved = "APPROVED"
	BotRequestRejected = "REJECTED"
	BotRequestStopped  = "STOPPED"
)

const (
	TradeSideBuy  = "BUY"
	TradeSideSell = "SELL"
)

// System setting keys (admin-configurable).
const (
	SettingDepositMinAmount    = "deposit_min_amount"
	SettingWithdrawalMinAmount = "withdrawal_min_amount"
	SettingReferralBaseURL     = "referral_base_url"
)

// Notification types pushed to users.
const (
	NotifyTransactionSettled = "TRANSACTION_SETTLED"
	NotifyInvestmentCreated  = "INVESTMENT_CREATED"
	NotifyRegistrationPaid   = "REGISTRATION_PAID"
	NotifyBotRequestDecided  = "BOT_REQUEST_DECIDED"
	NotifyMarketTicker       = "MARKET_TICKER"
)

// ReferralCodeLength is the length of generated referral codes.
const ReferralCodeLength = 8
