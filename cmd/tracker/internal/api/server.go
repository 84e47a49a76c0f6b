// Package api is the thin HTTP surface over the position ledger.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/loader"
	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

// Ledger is what the handlers need from the position store.
type Ledger interface {
	Insert(p models.Position)
	Snapshot() []models.Position
}

// positionView is the wire shape of a position, with the derived total value.
type positionView struct {
	InstrumentID string          `json:"instrument_id"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	InitialRate  decimal.Decimal `json:"initial_rate"`
	CurrentRate  decimal.Decimal `json:"current_rate"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

type uploadResponse struct {
	Loaded int `json:"loaded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	ledger Ledger
	logger *zap.Logger
}

func NewServer(ledger Ledger, logger *zap.Logger) *Server {
	return &Server{ledger: ledger, logger: logger}
}

// Routes registers the handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/positions", s.handleGetPositions)
	mux.HandleFunc("POST /api/positions/upload", s.handleUpload)
}

// handleGetPositions returns every held position. An empty ledger is an empty
// array, not an error.
func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()

	views := make([]positionView, len(snap))
	for i, p := range snap {
		views[i] = positionView{
			InstrumentID: p.InstrumentID,
			Symbol:       p.Symbol,
			Quantity:     p.Quantity,
			InitialRate:  p.InitialRate,
			CurrentRate:  p.CurrentRate,
			TotalValue:   p.TotalValue(),
		}
	}

	writeJSON(w, http.StatusOK, views)
}

// handleUpload loads a CSV body into the ledger. The load is all-or-nothing:
// a parse failure returns 400 and leaves the ledger as it was.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	n, err := loader.LoadInto(r.Body, s.ledger)
	if err != nil {
		s.logger.Warn("Positions upload rejected", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("Positions loaded", zap.Int("count", n))
	writeJSON(w, http.StatusOK, uploadResponse{Loaded: n})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
