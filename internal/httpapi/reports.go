package httpapi

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/report"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/service"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

type exportResponse struct {
	DB string `json:"db"`
	snapshot.Manifest
}

// reportQuery reads the shared report filters: date or date_debut/date_fin,
// numero_table or numero_cf, numero_util, type and limit.
func reportQuery(r *http.Request) (domain.ReportQuery, error) {
	values := r.URL.Query()
	var q domain.ReportQuery

	if day, ok, err := service.ParseDay(strings.TrimSpace(values.Get("date"))); err != nil {
		return q, err
	} else if ok {
		q.From, q.To = day, day
	}
	if from, ok, err := service.ParseDay(strings.TrimSpace(values.Get("date_debut"))); err != nil {
		return q, err
	} else if ok {
		q.From = from
		if q.To.Before(from) {
			q.To = from
		}
	}
	if to, ok, err := service.ParseDay(strings.TrimSpace(values.Get("date_fin"))); err != nil {
		return q, err
	} else if ok {
		q.To = to
	}

	for _, name := range []string{"numero_table", "numero_cf"} {
		id, ok, err := queryID(values.Get(name), name)
		if err != nil {
			return q, err
		}
		if ok {
			q.PartyID = &id
		}
	}
	sellerID, ok, err := queryID(values.Get("numero_util"), "numero_util")
	if err != nil {
		return q, err
	}
	if ok {
		q.SellerID = &sellerID
	}

	if raw := strings.TrimSpace(values.Get("type")); raw != "" {
		kind, err := domain.ParsePartyKind(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
		}
		q.Kind = kind
	}
	q.Limit = parsePositiveLimit(values.Get("limit"), 10, 100)
	return q, nil
}

func queryID(raw string, name string) (int64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false, fmt.Errorf("%w: invalid %s %q", store.ErrInvalidInput, name, raw)
	}
	return id, true, nil
}

func (a *API) handleSalesOfDay(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.service.SalesOfDay(r.Context(), tenantFrom(r), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleSalesOfDayWorkbook(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if q.From.IsZero() {
		q.From = time.Now()
		q.To = q.From
	}
	out, err := a.service.SalesOfDay(r.Context(), tenantFrom(r), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	day := q.From.Format("2006-01-02")
	var buf bytes.Buffer
	if err := report.WriteSales(&buf, day, out); err != nil {
		a.fail(w, r, err)
		return
	}
	writeWorkbook(w, "ventes_"+day+".xlsx", buf.Bytes())
}

func (a *API) handleReceiptsOfDay(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.service.ReceiptsOfDay(r.Context(), tenantFrom(r), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.service.PaymentHistory(r.Context(), tenantFrom(r), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.service.TopProducts(r.Context(), tenantFrom(r), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"produits": out})
}

func (a *API) handleProfitByDay(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.service.ProfitByDay(r.Context(), tenantFrom(r), q)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jours": out})
}

func (a *API) handleStockValuation(w http.ResponseWriter, r *http.Request) {
	out, err := a.service.StockValuation(r.Context(), tenantFrom(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleStockValuationWorkbook(w http.ResponseWriter, r *http.Request) {
	out, err := a.service.StockValuation(r.Context(), tenantFrom(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteStockValuation(&buf, out); err != nil {
		a.fail(w, r, err)
		return
	}
	writeWorkbook(w, "valeur_stock.xlsx", buf.Bytes())
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	day, _, err := service.ParseDay(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.service.Dashboard(r.Context(), tenantFrom(r), day)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := a.service.ExportSnapshot(r.Context(), tenantFrom(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{
		DB:       base64.StdEncoding.EncodeToString(snap.Data),
		Manifest: snap.Manifest,
	})
}

func writeWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
