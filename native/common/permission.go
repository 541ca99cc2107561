package common

import (
	"staychain/core/types"
)

// OperatorView resolves the contract-wide (owner, operator) delegation table.
// The expiry is a Unix timestamp; zero means the grant never expires.
type OperatorView interface {
	OperatorExpiry(owner, operator string) (uint64, bool, error)
}

// CanManage reports whether caller may exercise host rights over a token
// owned by owner: the owner themselves, or a delegated operator whose grant
// has not expired.
func CanManage(ops OperatorView, owner, caller string, now uint64) (bool, error) {
	if caller == owner {
		return true, nil
	}
	if ops == nil {
		return false, nil
	}
	expires, ok, err := ops.OperatorExpiry(owner, caller)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if expires != 0 && expires <= now {
		return false, nil
	}
	return true, nil
}

// CanSend reports whether caller may move the token or trigger its terminal
// payouts: the owner, a holder of a live per-token approval, or a delegated
// operator.
func CanSend(ops OperatorView, token *types.Token, caller string, now uint64) (bool, error) {
	if token == nil {
		return false, nil
	}
	if caller == token.Owner {
		return true, nil
	}
	if token.HasApproval(caller, now) {
		return true, nil
	}
	return CanManage(ops, token.Owner, caller, now)
}
