package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/railgun-community/broadcaster-directory/pkg/directory"
)

type Public struct {
	Dir    *directory.Directory
	Logger *zap.Logger
}

func NewPublic(dir *directory.Directory, logger *zap.Logger) *Public {
	return &Public{Dir: dir, Logger: logger}
}

// GET /broadcasters — every known broadcaster record.
func (p *Public) Broadcasters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, p.Dir.List())
}

// GET /broadcasters/best?token=0x..&now=<unix ms, optional>
func (p *Public) Best(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if !common.IsHexAddress(tokenStr) {
		http.Error(w, "missing or invalid token address", http.StatusBadRequest)
		return
	}
	now := time.Now().UnixMilli()
	if s := r.URL.Query().Get("now"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			http.Error(w, "invalid now", http.StatusBadRequest)
			return
		}
		now = v
	}

	c, ok := p.Dir.BestForToken(common.HexToAddress(tokenStr), now)
	if !ok {
		http.Error(w, "no broadcaster for token", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GET /broadcasters/fees?token=0x.. — all entries, expired included.
func (p *Public) TokenFees(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if !common.IsHexAddress(tokenStr) {
		http.Error(w, "missing or invalid token address", http.StatusBadRequest)
		return
	}
	entries := p.Dir.FeesForToken(common.HexToAddress(tokenStr))
	if entries == nil {
		entries = []directory.TokenFeeEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
