package types

// X402Version is the x402 version enum.
type X402Version int

const (
	X402Version2 X402Version = 2
)

// Status is the tip start status enum.
type Status string

const (
	StatusPaymentRequired Status = "payment_required"
	StatusSuccess         Status = "success"
)

// EventType is the settlement event type enum.
type EventType string

const (
	EventTypeTipSettled EventType = "tip.settled"
)

// InvalidReason is the invalid reason enum.
type InvalidReason string

const (
	InvalidReasonInvalidTxHash             InvalidReason = "invalid_tx_hash"
	InvalidReasonInvalidTokenAddress       InvalidReason = "invalid_token_address"
	InvalidReasonInvalidPayerAddress       InvalidReason = "invalid_payer_address"
	InvalidReasonInvalidRecipientAddress   InvalidReason = "invalid_recipient_address"
	InvalidReasonInvalidTransferAmount     InvalidReason = "invalid_transfer_amount"
	InvalidReasonTransactionNotFound       InvalidReason = "transaction_not_found"
	InvalidReasonTransactionFailed         InvalidReason = "transaction_failed"
	InvalidReasonInsufficientConfirmations InvalidReason = "insufficient_confirmations"
	InvalidReasonTransferNotFound          InvalidReason = "transfer_not_found"
	InvalidReasonTransferSenderMismatch    InvalidReason = "transfer_sender_mismatch"
	InvalidReasonTransferRecipientMismatch InvalidReason = "transfer_recipient_mismatch"
	InvalidReasonTransferAmountMismatch    InvalidReason = "transfer_amount_mismatch"
	InvalidReasonTransactionAlreadyUsed    InvalidReason = "transaction_already_used"
)
