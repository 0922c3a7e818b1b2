package httpapi

import (
	"net/http"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
)

func (a *API) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSaleRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	id, err := a.service.CreateSale(r.Context(), tenantFrom(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_comande": id})
}

func (a *API) handleModifySale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req domain.UpdateSaleRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.ModifySale(r.Context(), tenantFrom(r), id, req); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_comande": id, "message": "sale updated"})
}

func (a *API) handleCancelSale(w http.ResponseWriter, r *http.Request) {
	var req domain.CancelSaleRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.CancelSale(r.Context(), tenantFrom(r), req); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_comande": req.SaleID, "message": "sale cancelled"})
}

func (a *API) handleFetchSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	detail, err := a.service.FetchSale(r.Context(), tenantFrom(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReceiptRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	id, err := a.service.CreateReceipt(r.Context(), tenantFrom(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_mouvement": id})
}

func (a *API) handleModifyReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req domain.UpdateReceiptRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.ModifyReceipt(r.Context(), tenantFrom(r), id, req); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_mouvement": id, "message": "receipt updated"})
}

func (a *API) handleCancelReceipt(w http.ResponseWriter, r *http.Request) {
	var req domain.CancelReceiptRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.CancelReceipt(r.Context(), tenantFrom(r), req); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_mouvement": req.ReceiptID, "message": "receipt cancelled"})
}

func (a *API) handleFetchReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	detail, err := a.service.FetchReceipt(r.Context(), tenantFrom(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePaymentRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	id, err := a.service.CreatePayment(r.Context(), tenantFrom(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"numero_encaisse": id})
}

func (a *API) handleModifyPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePaymentRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.ModifyPayment(r.Context(), tenantFrom(r), req); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_encaisse": req.PaymentID, "message": "payment updated"})
}

func (a *API) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.CancelPaymentRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.CancelPayment(r.Context(), tenantFrom(r), req); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numero_encaisse": req.PaymentID, "message": "payment cancelled"})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	product, err := a.service.CreateProduct(r.Context(), tenantFrom(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (a *API) handleAddLinkedBarcode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req domain.LinkedBarcodeRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	linked, err := a.service.AddLinkedBarcode(r.Context(), tenantFrom(r), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, linked)
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.service.DeleteCategory(r.Context(), tenantFrom(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id_cat": id, "message": "category deleted"})
}
