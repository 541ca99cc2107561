package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"staychain/core/types"
	"staychain/crypto"
)

// RPCRequest is a JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError carries a JSON-RPC error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CoinParam is the wire form of an attached amount.
type CoinParam struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func (c CoinParam) toCoin() (types.Coin, error) {
	denom := strings.TrimSpace(c.Denom)
	if denom == "" {
		return types.Coin{}, fmt.Errorf("denom required")
	}
	amount := strings.TrimSpace(c.Amount)
	if amount == "" {
		amount = "0"
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return types.Coin{}, fmt.Errorf("invalid amount %q", c.Amount)
	}
	if value.Sign() < 0 {
		return types.Coin{}, fmt.Errorf("amount must not be negative")
	}
	return types.Coin{Denom: denom, Amount: value}, nil
}

// TierParam is the wire form of a cancellation tier.
type TierParam struct {
	DeadlineDays  uint64 `json:"deadlineDays"`
	RefundPercent uint64 `json:"refundPercent"`
}

// RentalListingParam is the wire form of rental terms.
type RentalListingParam struct {
	Kind            string      `json:"kind"`
	Denom           string      `json:"denom"`
	PricePerUnit    uint64      `json:"pricePerUnit"`
	AutoApprove     bool        `json:"autoApprove"`
	MinimumStay     uint64      `json:"minimumStay"`
	Cancellation    []TierParam `json:"cancellation,omitempty"`
	AvailablePeriod []string    `json:"availablePeriod,omitempty"`
}

func (p RentalListingParam) toListing() (types.RentalListing, error) {
	var kind types.BookingKind
	switch strings.ToLower(strings.TrimSpace(p.Kind)) {
	case "short_term", "shortterm", "short":
		kind = types.ShortTerm
	case "long_term", "longterm", "long":
		kind = types.LongTerm
	default:
		return types.RentalListing{}, fmt.Errorf("invalid listing kind %q", p.Kind)
	}
	tiers := make([]types.CancellationTier, 0, len(p.Cancellation))
	for _, tier := range p.Cancellation {
		if tier.RefundPercent > 100 {
			return types.RentalListing{}, fmt.Errorf("refund percent %d exceeds 100", tier.RefundPercent)
		}
		tiers = append(tiers, types.CancellationTier{
			DeadlineDays:  tier.DeadlineDays,
			RefundPercent: tier.RefundPercent,
		})
	}
	return types.RentalListing{
		Kind:            kind,
		Denom:           strings.TrimSpace(p.Denom),
		PricePerUnit:    p.PricePerUnit,
		AutoApprove:     p.AutoApprove,
		MinimumStay:     p.MinimumStay,
		Cancellation:    tiers,
		AvailablePeriod: p.AvailablePeriod,
	}, nil
}

// SaleListingParam is the wire form of a fixed-price sale offer.
type SaleListingParam struct {
	Denom       string `json:"denom"`
	Price       string `json:"price"`
	AutoApprove bool   `json:"autoApprove"`
}

func (p SaleListingParam) toSale() (types.SaleListing, error) {
	price, ok := new(big.Int).SetString(strings.TrimSpace(p.Price), 10)
	if !ok {
		return types.SaleListing{}, fmt.Errorf("invalid price %q", p.Price)
	}
	return types.SaleListing{
		Denom:       strings.TrimSpace(p.Denom),
		Price:       price,
		AutoApprove: p.AutoApprove,
	}, nil
}

// BookingResult is the wire view of one reservation.
type BookingResult struct {
	Renter    string `json:"renter"`
	Checkin   uint64 `json:"checkin"`
	Checkout  uint64 `json:"checkout"`
	Kind      string `json:"kind"`
	Denom     string `json:"denom"`
	Deposit   string `json:"deposit"`
	Approved  bool   `json:"approved"`
	Cancelled bool   `json:"cancelled"`
	Guests    uint64 `json:"guests"`
}

func formatBooking(b *types.Booking) BookingResult {
	deposit := "0"
	if b.Deposit != nil {
		deposit = b.Deposit.String()
	}
	return BookingResult{
		Renter:    b.Renter,
		Checkin:   b.Checkin,
		Checkout:  b.Checkout,
		Kind:      b.Kind.String(),
		Denom:     b.Denom,
		Deposit:   deposit,
		Approved:  b.IsApproved(),
		Cancelled: b.Cancelled,
		Guests:    b.Guests,
	}
}

// TokenResult is the wire view of a token record.
type TokenResult struct {
	ID        string               `json:"id"`
	Owner     string               `json:"owner"`
	URI       string               `json:"uri,omitempty"`
	Listing   *types.RentalListing `json:"listing,omitempty"`
	Sale      *SaleResult          `json:"sale,omitempty"`
	Rentals   []BookingResult      `json:"rentals,omitempty"`
	Bids      []BidResult          `json:"bids,omitempty"`
	Approvals []types.Approval     `json:"approvals,omitempty"`
}

// SaleResult is the wire view of a sale offer.
type SaleResult struct {
	Denom       string `json:"denom"`
	Price       string `json:"price"`
	AutoApprove bool   `json:"autoApprove"`
}

// BidResult is the wire view of one escrowed bid.
type BidResult struct {
	Bidder string `json:"bidder"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func formatToken(t *types.Token) TokenResult {
	result := TokenResult{
		ID:        t.ID,
		Owner:     t.Owner,
		URI:       t.URI,
		Listing:   t.Listing,
		Approvals: t.Approvals,
	}
	if t.Sale != nil {
		price := "0"
		if t.Sale.Price != nil {
			price = t.Sale.Price.String()
		}
		result.Sale = &SaleResult{Denom: t.Sale.Denom, Price: price, AutoApprove: t.Sale.AutoApprove}
	}
	for i := range t.Rentals {
		result.Rentals = append(result.Rentals, formatBooking(&t.Rentals[i]))
	}
	for _, bid := range t.Bids {
		amount := "0"
		if bid.Amount != nil {
			amount = bid.Amount.String()
		}
		result.Bids = append(result.Bids, BidResult{Bidder: bid.Bidder, Denom: bid.Denom, Amount: amount})
	}
	return result
}

// BalanceResult is the wire view of an account's holdings.
type BalanceResult struct {
	Address  string            `json:"address"`
	Balances map[string]string `json:"balances"`
	Nonce    uint64            `json:"nonce"`
}

func formatAccount(addr string, acc *types.Account) BalanceResult {
	balances := make(map[string]string, len(acc.Balances))
	for denom, amount := range acc.Balances {
		if amount != nil {
			balances[denom] = amount.String()
		}
	}
	return BalanceResult{Address: addr, Balances: balances, Nonce: acc.Nonce}
}

// parseAddress validates a bech32 address parameter and returns its
// canonical string form.
func parseAddress(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s required", field)
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %v", field, err)
	}
	return addr.String(), nil
}
