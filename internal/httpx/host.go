package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/logging"
)

// registerHostRoutes mounts the chain and event-log endpoints:
//   - GET /chain/head - current block number
//   - POST /chain/blocks?n=1 - produce n blocks (development aid)
//   - GET /events?module=&from=&limit= - deposited event records
func registerHostRoutes(r chi.Router, host Host, logger logging.Logger) {
	if host.Clock != nil {
		r.Get("/chain/head", func(w http.ResponseWriter, r *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]uint64{"block_number": host.Clock.BlockNumber()})
		})

		r.Post("/chain/blocks", func(w http.ResponseWriter, r *http.Request) {
			n := uint64(1)
			if s := r.URL.Query().Get("n"); s != "" {
				v, err := strconv.ParseUint(s, 10, 64)
				if err != nil || v == 0 {
					WriteError(w, http.StatusBadRequest, "InvalidRequest", "n must be a positive integer")
					return
				}
				n = v
			}

			head, err := host.Clock.Advance(n)
			if errors.Is(err, chain.ErrHeightOverflow) {
				WriteError(w, http.StatusBadRequest, "InvalidRequest", "n would overflow the block number")
				return
			}
			if err != nil {
				logger.Error("failed to produce blocks", logging.ErrorField(err))
				WriteError(w, http.StatusInternalServerError, "InternalError", "Failed to produce blocks")
				return
			}
			logger.Info("blocks produced on request",
				logging.Uint64("count", n),
				logging.Uint64("block_number", head),
			)
			WriteJSON(w, http.StatusOK, map[string]uint64{"block_number": head})
		})
	}

	if host.Events != nil {
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			filter := events.Filter{Module: q.Get("module")}

			if s := q.Get("from"); s != "" {
				v, err := strconv.ParseUint(s, 10, 64)
				if err != nil {
					WriteError(w, http.StatusBadRequest, "InvalidRequest", "from must be a block number")
					return
				}
				filter.FromBlock = v
			}
			if s := q.Get("limit"); s != "" {
				v, err := strconv.Atoi(s)
				if err != nil || v < 0 {
					WriteError(w, http.StatusBadRequest, "InvalidRequest", "limit must be a non-negative integer")
					return
				}
				filter.Limit = v
			}

			records, err := host.Events.Records(r.Context(), filter)
			if err != nil {
				logger.Error("failed to read event log", logging.ErrorField(err))
				WriteError(w, http.StatusInternalServerError, "InternalError", "Failed to read events")
				return
			}
			WriteJSON(w, http.StatusOK, map[string]any{"events": records})
		})
	}
}
