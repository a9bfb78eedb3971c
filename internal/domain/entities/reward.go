package entities

// Reward is a static catalog entry.
type Reward struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PointsRequired uint64 `json:"pointsRequired"`
	Description    string `json:"description,omitempty"`
	Icon           string `json:"icon,omitempty"`
}

// RecordRedemptionInput is the acknowledgement request sent after the
// client broadcast a burn transaction.
type RecordRedemptionInput struct {
	RewardID            string
	PointsBurned        string
	BurnTransactionHash string
}

// Redemption is echoed back to the caller. It is not stored.
type Redemption struct {
	PrivyDID            string `json:"-"`
	RewardID            string `json:"rewardId"`
	PointsBurned        string `json:"pointsBurned"`
	BurnTransactionHash string `json:"burnTransactionHash"`
	VoucherCode         string `json:"voucherCode"`
}

// MenuItem is a purchasable item; buying one earns PointsToEarn.
type MenuItem struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	PointsToEarn uint64 `json:"pointsToEarn"`
}
