package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staychain/core"
	"staychain/native/common"
	"staychain/native/market"
	"staychain/native/registry"
	"staychain/native/rental"
	"staychain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeModulePaused   = -32030
)

// Server exposes the node over JSON-RPC 2.0.
type Server struct {
	node      *core.Node
	authToken string
	log       *slog.Logger
}

// NewServer wraps a node. The auth token gates administrative methods; an
// empty token disables them entirely.
func NewServer(node *core.Node, authToken string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{node: node, authToken: strings.TrimSpace(authToken), log: log}
}

// Router assembles the HTTP surface: the JSON-RPC endpoint, Prometheus
// metrics and a liveness probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Post("/", s.handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Start serves the router on addr, blocking until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps engine sentinel errors onto stable RPC codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, common.ErrModulePaused):
		writeError(w, http.StatusServiceUnavailable, id, codeModulePaused, "module paused", err.Error())
	case errors.Is(err, rental.ErrUnauthorized),
		errors.Is(err, market.ErrUnauthorized),
		errors.Is(err, registry.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, rental.ErrInvalidInput),
		errors.Is(err, market.ErrInvalidInput),
		errors.Is(err, registry.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, "invalid_params", err.Error())
	default:
		writeError(w, http.StatusBadRequest, id, codeServerError, "operation failed", err.Error())
	}
}

type paramDecoder func(raw json.RawMessage) error

// decodeParams enforces the single-object parameter convention.
func decodeParams(req *RPCRequest, decode paramDecoder) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return decode(req.Params[0])
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	recorder := &statusRecorder{ResponseWriter: w}
	s.dispatch(recorder, r, req)
	code := 0
	if recorder.status >= 400 {
		code = recorder.status
	}
	observability.RPC().Observe(req.Method, code, time.Since(started))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "stay_listRental":
		s.handleListRental(w, req)
	case "stay_unlistRental":
		s.handleUnlistRental(w, req)
	case "stay_reserve":
		s.handleReserve(w, req)
	case "stay_approveReservation":
		s.handleApproveReservation(w, req)
	case "stay_rejectReservation":
		s.handleRejectReservation(w, req)
	case "stay_cancelReservation":
		s.handleCancelReservation(w, req)
	case "stay_cancelApprovedReservation":
		s.handleCancelApprovedReservation(w, req)
	case "stay_topUpDeposit":
		s.handleTopUpDeposit(w, req)
	case "stay_finalizeReservation":
		s.handleFinalizeReservation(w, req)
	case "stay_setFee":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetFee(w, req)
	case "stay_withdraw":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleWithdraw(w, req)
	case "stay_listForSale":
		s.handleListForSale(w, req)
	case "stay_delistSale":
		s.handleDelistSale(w, req)
	case "stay_placeBid":
		s.handlePlaceBid(w, req)
	case "stay_mintToken":
		s.handleMintToken(w, req)
	case "stay_transferToken":
		s.handleTransferToken(w, req)
	case "stay_approve":
		s.handleApprove(w, req)
	case "stay_revoke":
		s.handleRevoke(w, req)
	case "stay_approveAll":
		s.handleApproveAll(w, req)
	case "stay_revokeAll":
		s.handleRevokeAll(w, req)
	case "stay_burnToken":
		s.handleBurnToken(w, req)
	case "stay_setMetadata":
		s.handleSetMetadata(w, req)
	case "stay_getToken":
		s.handleGetToken(w, req)
	case "stay_getBalance":
		s.handleGetBalance(w, req)
	case "stay_getFee":
		s.handleGetFee(w, req)
	case "stay_getPlatformBalance":
		s.handleGetPlatformBalance(w, req)
	case "stay_getTokenCount":
		s.handleGetTokenCount(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %s not found", req.Method), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}
