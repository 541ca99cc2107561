package rpc

import (
	"encoding/json"
	"net/http"
)

type mintTokenParams struct {
	Caller  string `json:"caller"`
	TokenID string `json:"tokenId"`
	URI     string `json:"uri"`
}

func (s *Server) handleMintToken(w http.ResponseWriter, req *RPCRequest) {
	var params mintTokenParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	token, err := s.node.MintToken(caller, params.TokenID, params.URI)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatToken(token))
}

type transferTokenParams struct {
	Caller    string `json:"caller"`
	TokenID   string `json:"tokenId"`
	Recipient string `json:"recipient"`
}

func (s *Server) handleTransferToken(w http.ResponseWriter, req *RPCRequest) {
	var params transferTokenParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	recipient, err := parseAddress("recipient", params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.TransferToken(caller, params.TokenID, recipient); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "transferred"})
}

type approveParams struct {
	Caller  string `json:"caller"`
	TokenID string `json:"tokenId"`
	Spender string `json:"spender"`
	Expires uint64 `json:"expires"`
}

func (s *Server) handleApprove(w http.ResponseWriter, req *RPCRequest) {
	var params approveParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.ApproveSpender(caller, params.TokenID, spender, params.Expires); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "approved"})
}

func (s *Server) handleRevoke(w http.ResponseWriter, req *RPCRequest) {
	var params approveParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	spender, err := parseAddress("spender", params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.RevokeSpender(caller, params.TokenID, spender); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "revoked"})
}

type operatorParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	Expires  uint64 `json:"expires"`
}

func (s *Server) handleApproveAll(w http.ResponseWriter, req *RPCRequest) {
	var params operatorParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	operator, err := parseAddress("operator", params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.ApproveOperator(caller, operator, params.Expires); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "approved"})
}

func (s *Server) handleRevokeAll(w http.ResponseWriter, req *RPCRequest) {
	var params operatorParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	operator, err := parseAddress("operator", params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.RevokeOperator(caller, operator); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "revoked"})
}

func (s *Server) handleBurnToken(w http.ResponseWriter, req *RPCRequest) {
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
	if err := s.node.BurnToken(caller, params.TokenID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "burned"})
}

func (s *Server) handleSetMetadata(w http.ResponseWriter, req *RPCRequest) {
	var params mintTokenParams
	if err := decodeParams(req, func(raw json.RawMessage) error { return json.Unmarshal(raw, &params) }); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := s.node.SetTokenMetadata(caller, params.TokenID, params.URI); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "updated"})
}
