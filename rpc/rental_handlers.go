package rpc

import (
	"encoding/json"
	"net/http"
)

type listRentalParams struct {
	Caller  string             `json:"caller"`
	TokenID string             `json:"tokenId"`
	Listing RentalListingParam `json:"listing"`
}

func (s *Server) handleListRental(w http.ResponseWriter, req *RPCRequest) {
	var params listRentalParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	listing, err := params.Listing.toListing()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.ListRental(caller, params.TokenID, listing); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "listed"})
}

type tokenCallerParams struct {
	Caller  string `json:"caller"`
	TokenID string `json:"tokenId"`
}

func (s *Server) handleUnlistRental(w http.ResponseWriter, req *RPCRequest) {
	var params tokenCallerParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.UnlistRental(caller, params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "unlisted"})
}

type reserveParams struct {
	Caller   string    `json:"caller"`
	TokenID  string    `json:"tokenId"`
	Checkin  uint64    `json:"checkin"`
	Checkout uint64    `json:"checkout"`
	Guests   uint64    `json:"guests"`
	Funds    CoinParam `json:"funds"`
}

func (s *Server) handleReserve(w http.ResponseWriter, req *RPCRequest) {
	var params reserveParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	funds, err := params.Funds.toCoin()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	booking, err := s.node.Reserve(caller, params.TokenID, params.Checkin, params.Checkout, params.Guests, funds)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatBooking(booking))
}

type bookingRefParams struct {
	Caller   string `json:"caller"`
	TokenID  string `json:"tokenId"`
	Renter   string `json:"renter"`
	Checkin  uint64 `json:"checkin"`
	Checkout uint64 `json:"checkout"`
}

func (s *Server) decodeBookingRef(w http.ResponseWriter, req *RPCRequest, needRenter bool) (*bookingRefParams, bool) {
	var params bookingRefParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return nil, false
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return nil, false
	}
	params.Caller = caller
	if needRenter {
		renter, err := parseAddress("renter", params.Renter)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
			return nil, false
		}
		params.Renter = renter
	}
	return &params, true
}

func (s *Server) handleApproveReservation(w http.ResponseWriter, req *RPCRequest) {
	params, ok := s.decodeBookingRef(w, req, true)
	if !ok {
		return
	}
	if err := s.node.ApproveReservation(params.Caller, params.TokenID, params.Renter, params.Checkin, params.Checkout); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "approved"})
}

func (s *Server) handleRejectReservation(w http.ResponseWriter, req *RPCRequest) {
	params, ok := s.decodeBookingRef(w, req, true)
	if !ok {
		return
	}
	if err := s.node.RejectReservation(params.Caller, params.TokenID, params.Renter, params.Checkin, params.Checkout); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "rejected"})
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, req *RPCRequest) {
	params, ok := s.decodeBookingRef(w, req, false)
	if !ok {
		return
	}
	if err := s.node.CancelBeforeApproval(params.Caller, params.TokenID, params.Checkin, params.Checkout); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "cancelled"})
}

func (s *Server) handleCancelApprovedReservation(w http.ResponseWriter, req *RPCRequest) {
	params, ok := s.decodeBookingRef(w, req, false)
	if !ok {
		return
	}
	refund, err := s.node.CancelAfterApproval(params.Caller, params.TokenID, params.Checkin, params.Checkout)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "cancelled", "refund": refund.String()})
}

type topUpParams struct {
	Caller   string    `json:"caller"`
	TokenID  string    `json:"tokenId"`
	Checkin  uint64    `json:"checkin"`
	Checkout uint64    `json:"checkout"`
	Funds    CoinParam `json:"funds"`
}

func (s *Server) handleTopUpDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params topUpParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	funds, err := params.Funds.toCoin()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.TopUpDeposit(caller, params.TokenID, params.Checkin, params.Checkout, funds); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "deposited"})
}

func (s *Server) handleFinalizeReservation(w http.ResponseWriter, req *RPCRequest) {
	params, ok := s.decodeBookingRef(w, req, true)
	if !ok {
		return
	}
	payee, payout, err := s.node.FinalizeReservation(params.Caller, params.TokenID, params.Renter, params.Checkin, params.Checkout)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"payee": payee, "payout": payout.String()})
}

type setFeeParams struct {
	Caller string `json:"caller"`
	FeeBps uint64 `json:"feeBps"`
}

func (s *Server) handleSetFee(w http.ResponseWriter, req *RPCRequest) {
	var params setFeeParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.SetFeeBps(caller, params.FeeBps); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "updated"})
}

type withdrawParams struct {
	Caller string    `json:"caller"`
	Target string    `json:"target"`
	Amount CoinParam `json:"amount"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params withdrawParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	target, err := parseAddress("target", params.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := params.Amount.toCoin()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.WithdrawPlatform(caller, target, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "withdrawn"})
}
