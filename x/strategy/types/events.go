package types

// Event types and attribute keys
const (
	EventTypeDeposit      = "strategy_deposit"
	EventTypeWithdraw     = "strategy_withdraw"
	EventTypeExchangeRate = "strategy_exchange_rate"
	EventTypeSetTVLLimits = "strategy_set_tvl_limits"

	AttributeKeyManager          = "manager"
	AttributeKeyBeneficiary      = "beneficiary"
	AttributeKeyDenom            = "denom"
	AttributeKeyAmount           = "amount"
	AttributeKeyShares           = "shares"
	AttributeKeyTotalShares      = "total_shares"
	AttributeKeyBalance          = "balance"
	AttributeKeyRate             = "rate"
	AttributeKeyMaxPerDeposit    = "max_per_deposit"
	AttributeKeyMaxTotalDeposits = "max_total_deposits"
)
