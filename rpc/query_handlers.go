package rpc

import (
	"encoding/json"
	"net/http"
	"strings"
)

type tokenQueryParams struct {
	TokenID string `json:"tokenId"`
}

func (s *Server) handleGetToken(w http.ResponseWriter, req *RPCRequest) {
	var params tokenQueryParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if strings.TrimSpace(params.TokenID) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", "tokenId required")
		return
	}
	token, ok, err := s.node.Token(params.TokenID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "query failed", err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "token not found", params.TokenID)
		return
	}
	writeResult(w, req.ID, formatToken(token))
}

type balanceQueryParams struct {
	Address string `json:"address"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceQueryParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	addr, err := parseAddress("address", params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	account, err := s.node.Account(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "query failed", err.Error())
		return
	}
	writeResult(w, req.ID, formatAccount(addr, account))
}

func (s *Server) handleGetFee(w http.ResponseWriter, req *RPCRequest) {
	bps, err := s.node.FeeBps()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "query failed", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"feeBps": bps})
}

type platformQueryParams struct {
	Denom string `json:"denom"`
}

func (s *Server) handleGetPlatformBalance(w http.ResponseWriter, req *RPCRequest) {
	var params platformQueryParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if strings.TrimSpace(params.Denom) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", "denom required")
		return
	}
	balance, err := s.node.PlatformBalance(params.Denom)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "query failed", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"denom": params.Denom, "balance": balance.String()})
}

func (s *Server) handleGetTokenCount(w http.ResponseWriter, req *RPCRequest) {
	count, err := s.node.TokenCount()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "query failed", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
}
