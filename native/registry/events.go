package registry

import (
	"strconv"

	"staychain/core/types"
)

const (
	EventTypeTokenMinted      = "registry.token.minted"
	EventTypeTokenTransferred = "registry.token.transferred"
	EventTypeTokenBurned      = "registry.token.burned"
	EventTypeApprovalGranted  = "registry.approval.granted"
	EventTypeApprovalRevoked  = "registry.approval.revoked"
	EventTypeOperatorGranted  = "registry.operator.granted"
	EventTypeOperatorRevoked  = "registry.operator.revoked"
	EventTypeMetadataUpdated  = "registry.metadata.updated"
)

func newTokenEvent(eventType, tokenID, sender string) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"tokenId": tokenID,
			"sender":  sender,
		},
	}
}

func newTransferEvent(tokenID, sender, recipient string) *types.Event {
	evt := newTokenEvent(EventTypeTokenTransferred, tokenID, sender)
	evt.Attributes["recipient"] = recipient
	return evt
}

func newApprovalEvent(eventType, tokenID, sender, spender string, expires uint64) *types.Event {
	evt := newTokenEvent(eventType, tokenID, sender)
	evt.Attributes["spender"] = spender
	evt.Attributes["expires"] = strconv.FormatUint(expires, 10)
	return evt
}

func newOperatorEvent(eventType, owner, operator string, expires uint64) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"owner":    owner,
			"operator": operator,
			"expires":  strconv.FormatUint(expires, 10),
		},
	}
}
