package types

import (
	"cosmossdk.io/math"
)

// QueryStateRequest is the request for the pool state
type QueryStateRequest struct{}

// QueryStateResponse is the response for the pool state
type QueryStateResponse struct {
	State        StrategyState `json:"state"`
	Balance      math.Int      `json:"balance"`
	ExchangeRate math.Int      `json:"exchange_rate"`
}

// QueryParamsRequest is the request for the TVL params
type QueryParamsRequest struct{}

// QueryParamsResponse is the response for the TVL params
type QueryParamsResponse struct {
	Params Params `json:"params"`
}

// QuerySharesToUnderlyingRequest converts shares to underlying
type QuerySharesToUnderlyingRequest struct {
	Shares math.Int `json:"shares"`
}

// QuerySharesToUnderlyingResponse is the underlying value of the requested shares
type QuerySharesToUnderlyingResponse struct {
	Amount math.Int `json:"amount"`
}

// QueryUnderlyingToSharesRequest converts underlying to shares
type QueryUnderlyingToSharesRequest struct {
	Amount math.Int `json:"amount"`
}

// QueryUnderlyingToSharesResponse is the share value of the requested amount
type QueryUnderlyingToSharesResponse struct {
	Shares math.Int `json:"shares"`
}

// QueryUserRequest addresses a single user
type QueryUserRequest struct {
	User string `json:"user"`
}

// QueryUserResponse reports a user's position in the pool
type QueryUserResponse struct {
	User       string   `json:"user"`
	Shares     math.Int `json:"shares"`
	Underlying math.Int `json:"underlying"`
}

// QueryDescriptionRequest is the request for the static description
type QueryDescriptionRequest struct{}

// QueryDescriptionResponse carries the static description
type QueryDescriptionResponse struct {
	Description string `json:"description"`
}
