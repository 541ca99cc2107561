package rpc

import (
	"encoding/json"
	"net/http"
)

type listForSaleParams struct {
	Caller  string           `json:"caller"`
	TokenID string           `json:"tokenId"`
	Sale    SaleListingParam `json:"sale"`
}

func (s *Server) handleListForSale(w http.ResponseWriter, req *RPCRequest) {
	var params listForSaleParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	sale, err := params.Sale.toSale()
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.ListForSale(caller, params.TokenID, sale); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "listed"})
}

func (s *Server) handleDelistSale(w http.ResponseWriter, req *RPCRequest) {
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
	if err := s.node.DelistSale(caller, params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "delisted"})
}

type placeBidParams struct {
	Caller  string    `json:"caller"`
	TokenID string    `json:"tokenId"`
	Funds   CoinParam `json:"funds"`
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, req *RPCRequest) {
	var params placeBidParams
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
	if err := s.node.PlaceOrWithdrawBid(caller, params.TokenID, funds); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "accepted"})
}
