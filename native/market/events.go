package market

import (
	"math/big"
	"strconv"

	"staychain/core/types"
)

const (
	EventTypeSaleListed   = "market.sale.listed"
	EventTypeSaleDelisted = "market.sale.delisted"
	EventTypeSaleSettled  = "market.sale.settled"
	EventTypeBidPlaced    = "market.bid.placed"
	EventTypeBidWithdrawn = "market.bid.withdrawn"
)

func newSaleEvent(eventType string, token *types.Token, caller string) *types.Event {
	attrs := map[string]string{
		"tokenId": token.ID,
		"sender":  caller,
	}
	if token.Sale != nil {
		attrs["denom"] = token.Sale.Denom
		if token.Sale.Price != nil {
			attrs["price"] = token.Sale.Price.String()
		}
		attrs["autoApprove"] = strconv.FormatBool(token.Sale.AutoApprove)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newBidEvent(eventType string, token *types.Token, bid types.Bid) *types.Event {
	attrs := map[string]string{
		"tokenId": token.ID,
		"bidder":  bid.Bidder,
		"denom":   bid.Denom,
	}
	if bid.Amount != nil {
		attrs["amount"] = bid.Amount.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func newSettleEvent(token *types.Token, bid types.Bid, seller string, proceeds string, fee *big.Int) *types.Event {
	evt := newBidEvent(EventTypeSaleSettled, token, bid)
	evt.Attributes["seller"] = seller
	evt.Attributes["proceeds"] = proceeds
	if fee != nil && fee.Sign() > 0 {
		evt.Attributes[types.AttrPlatformFee] = fee.String()
	}
	return evt
}
