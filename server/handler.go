// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/0xsoniclabs/blindauction/auction"
	"github.com/0xsoniclabs/blindauction/bank"
	"github.com/0xsoniclabs/blindauction/common"
	"github.com/0xsoniclabs/blindauction/host"
	"github.com/ethereum/go-ethereum/log"
	"github.com/go-chi/chi/v5"
)

// maxRequestBytes limits the size of request bodies.
const maxRequestBytes = 1 << 20

// AuctionHandler exposes the operations of an auction host. Callers identify
// themselves by the address in the request; authenticating it is left to the
// deployment in front of the server.
type AuctionHandler struct {
	host   *host.Host
	faucet bool
	log    log.Logger
}

func NewAuctionHandler(host *host.Host, faucet bool, logger log.Logger) *AuctionHandler {
	if logger == nil {
		logger = log.Root()
	}
	return &AuctionHandler{
		host:   host,
		faucet: faucet,
		log:    logger.New("module", "api"),
	}
}

func (h *AuctionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auction", h.getAuction)
	r.Post("/auction/bids", h.placeBid)
	r.Post("/auction/reveals", h.reveal)
	r.Post("/auction/withdrawals", h.withdraw)
	r.Post("/auction/finalize", h.finalize)
	r.Get("/auction/check", h.check)
	r.Get("/accounts/{address}", h.getAccount)

	if h.faucet {
		r.Post("/accounts/{address}/fund", h.fund)
	}
}

func (h *AuctionHandler) getAuction(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAuctionResponse(h.host.Status()))
}

func (h *AuctionHandler) placeBid(w http.ResponseWriter, r *http.Request) {
	var req BidRequest
	if !decodeRequest(w, r, &req) || !validCaller(w, req.From) {
		return
	}
	if err := h.host.PlaceBid(req.From, req.Digest, req.Deposit); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(h.host.Account(req.From)))
}

func (h *AuctionHandler) reveal(w http.ResponseWriter, r *http.Request) {
	var req RevealRequest
	if !decodeRequest(w, r, &req) || !validCaller(w, req.From) {
		return
	}
	results, err := h.host.Reveal(req.From, toClaims(req.Claims))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRevealResponse(results))
}

func (h *AuctionHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if !decodeRequest(w, r, &req) || !validCaller(w, req.From) {
		return
	}
	paid, err := h.host.Withdraw(req.From)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WithdrawResponse{Amount: paid})
}

func (h *AuctionHandler) finalize(w http.ResponseWriter, r *http.Request) {
	if err := h.host.Finalize(); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuctionResponse(h.host.Status()))
}

func (h *AuctionHandler) check(w http.ResponseWriter, r *http.Request) {
	if err := h.host.Check(); err != nil {
		h.log.Error("Consistency check failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *AuctionHandler) getAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(h.host.Account(addr)))
}

func (h *AuctionHandler) fund(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	var req FundRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := h.host.Fund(addr, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(h.host.Account(addr)))
}

// --- utility functions ---

// statusOf maps errors of host operations to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, auction.ErrWrongPhase), errors.Is(err, auction.ErrAlreadyFinalized):
		return http.StatusConflict
	case errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, bank.ErrOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *AuctionHandler) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target any) bool {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to parse request: %v", err)})
		return false
	}
	return true
}

func addressParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	addr, err := common.HexToAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return common.Address{}, false
	}
	return addr, true
}

// validCaller rejects requests without a caller address.
func validCaller(w http.ResponseWriter, from common.Address) bool {
	if from == (common.Address{}) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing caller address"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
