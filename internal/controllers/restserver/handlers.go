package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chrissnell/bazi/internal/log"
	"github.com/chrissnell/bazi/internal/store"
	"github.com/chrissnell/bazi/pkg/bazi"
	"github.com/chrissnell/bazi/pkg/responseformat"
	"github.com/chrissnell/bazi/pkg/solarterm"
	"github.com/chrissnell/bazi/pkg/solartime"
)

const (
	maxBodyBytes  = 1 << 20
	maxBatchSize  = 100
	chartIDHeader = "X-Chart-Id"
)

var errStorageDisabled = errors.New("chart storage is not configured")

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// Healthz reports liveness
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": h.controller.store != nil,
	})
}

// CreateChart calculates one chart and optionally stores it
func (h *Handlers) CreateChart(w http.ResponseWriter, req *http.Request) {
	var cr ChartRequest
	if err := decodeBody(w, req, &cr); err != nil {
		h.writeError(w, req, err)
		return
	}
	if cr.Persist && h.controller.store == nil {
		h.writeError(w, req, errStorageDisabled)
		return
	}

	r, err := cr.toRequest()
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	res, err := h.controller.engine.Calculate(req.Context(), r)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	chart, err := json.Marshal(res)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	status := http.StatusOK
	if cr.Persist {
		id, err := h.save(req.Context(), res, chart)
		if err != nil {
			h.writeError(w, req, err)
			return
		}
		w.Header().Set(chartIDHeader, id)
		w.Header().Set("Location", "/api/v1/charts/"+id)
		status = http.StatusCreated
	}

	if err := h.formatter.WriteRawJSON(w, req, status, chart, nil); err != nil {
		h.controller.logger.Errorw("writing chart response", "error", err)
	}
}

// CreateChartBatch calculates a list of charts. The whole batch fails on the
// first bad request, and persisted items are stored in one transaction.
func (h *Handlers) CreateChartBatch(w http.ResponseWriter, req *http.Request) {
	var crs []ChartRequest
	if err := decodeBody(w, req, &crs); err != nil {
		h.writeError(w, req, err)
		return
	}
	if len(crs) == 0 || len(crs) > maxBatchSize {
		h.writeError(w, req, fmt.Errorf("%w: batch holds %d requests, want 1 to %d", bazi.ErrInvalidInput, len(crs), maxBatchSize))
		return
	}

	reqs := make([]bazi.Request, len(crs))
	for i, cr := range crs {
		if cr.Persist && h.controller.store == nil {
			h.writeError(w, req, errStorageDisabled)
			return
		}
		r, err := cr.toRequest()
		if err != nil {
			h.writeError(w, req, fmt.Errorf("request %d: %w", i, err))
			return
		}
		reqs[i] = r
	}

	results, err := h.controller.engine.CalculateBatch(req.Context(), reqs)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	items := make([]BatchItem, len(results))
	var recs []store.Record
	for i, res := range results {
		chart, err := json.Marshal(res)
		if err != nil {
			h.writeError(w, req, err)
			return
		}
		items[i].Chart = chart
		if crs[i].Persist {
			rec := newRecord(res, chart)
			items[i].ID = rec.ID
			recs = append(recs, rec)
		}
	}

	// Either every requested chart is stored or none is
	if len(recs) > 0 {
		if err := h.controller.store.SaveAll(req.Context(), recs); err != nil {
			h.writeError(w, req, err)
			return
		}
	}
	h.write(w, req, http.StatusOK, items)
}

// GetChart returns a stored chart with its id and creation time
func (h *Handlers) GetChart(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if h.controller.store == nil {
		h.writeError(w, req, store.ErrNotFound)
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, req, store.ErrNotFound)
		return
	}

	rec, err := h.controller.store.Get(req.Context(), id)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	w.Header().Set(chartIDHeader, rec.ID)
	err = h.formatter.WriteRawJSON(w, req, http.StatusOK, rec.Chart, &responseformat.JSONWrapper{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		h.controller.logger.Errorw("writing stored chart", "id", rec.ID, "error", err)
	}
}

// GetSolarTerms lists the 24 term instants of a year
func (h *Handlers) GetSolarTerms(w http.ResponseWriter, req *http.Request) {
	year, err := strconv.Atoi(mux.Vars(req)["year"])
	if err != nil {
		h.writeError(w, req, fmt.Errorf("%w: year %q", bazi.ErrInvalidInput, mux.Vars(req)["year"]))
		return
	}

	table := h.controller.engine.SolarTerms()
	instants, err := table.LookupAll(year)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	tier, err := table.SourceFor(year)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	resp := SolarTermsResponse{Year: year, Source: tier, Terms: make([]SolarTermView, 0, solarterm.NumTerms)}
	for i, at := range instants {
		t := solarterm.Term(i)
		resp.Terms = append(resp.Terms, SolarTermView{
			Index:         i,
			Name:          t.String(),
			English:       t.English(),
			Longitude:     t.Longitude(),
			MonthBoundary: t.IsMonthBoundary(),
			At:            at,
		})
	}
	h.write(w, req, http.StatusOK, resp)
}

// GetRuleSets lists the loaded shensha rule sets and their rules
func (h *Handlers) GetRuleSets(w http.ResponseWriter, req *http.Request) {
	registry := h.controller.engine.RuleSets()
	def := h.controller.engine.DefaultRuleSetName()

	var views []RuleSetView
	for _, name := range registry.Names() {
		rs, err := registry.Get(name)
		if err != nil {
			h.writeError(w, req, err)
			return
		}
		view := RuleSetView{
			Name:        rs.Name,
			Description: rs.Description,
			Default:     rs.Name == def,
			Rules:       make([]RuleView, len(rs.Rules)),
		}
		for i, r := range rs.Rules {
			view.Rules[i] = RuleView{
				Key:      r.Key,
				Name:     r.Name,
				English:  r.English,
				Category: string(r.Category),
				Kind:     string(r.Kind),
				Excludes: r.Excludes,
			}
		}
		views = append(views, view)
	}
	h.write(w, req, http.StatusOK, views)
}

// GetHTTPLogs returns the recent request log, oldest first
func (h *Handlers) GetHTTPLogs(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, http.StatusOK, log.GetHTTPLogBuffer().Entries())
}

// newRecord gives a calculated chart a fresh id for storage
func newRecord(res *bazi.Result, chart []byte) store.Record {
	return store.Record{
		ID:         uuid.NewString(),
		ExternalID: res.ExternalID,
		RuleSet:    res.RuleSet,
		Pillars:    res.Pillars.String(),
		Chart:      chart,
		CreatedAt:  time.Now().UTC(),
	}
}

func (h *Handlers) save(ctx context.Context, res *bazi.Result, chart []byte) (string, error) {
	rec := newRecord(res, chart)
	if err := h.controller.store.Save(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", bazi.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Errorw("writing response", "path", req.URL.Path, "error", err)
	}
}

// errorStatus maps engine and storage errors onto HTTP statuses
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, solartime.ErrMissingLongitude):
		return http.StatusBadRequest, "missing_longitude"
	case errors.Is(err, bazi.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, errStorageDisabled):
		return http.StatusBadRequest, "storage_disabled"
	case errors.Is(err, solarterm.ErrOutOfRangeYear):
		return http.StatusUnprocessableEntity, "out_of_range_year"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "timeout"
	case errors.Is(err, solarterm.ErrMissingSolarTermData):
		return http.StatusInternalServerError, "missing_solar_term_data"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "code", code, "error", err)
		if code == "internal" {
			msg = "internal error"
		}
	}
	if werr := h.formatter.WriteError(w, req, status, code, msg); werr != nil {
		h.controller.logger.Errorw("writing error response", "error", werr)
	}
}
