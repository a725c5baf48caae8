package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func deleteInvoice(t *testing.T, ih *InvoiceHandler, no string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invoices/delete?no="+no, nil)
	w := httptest.NewRecorder()
	ih.Delete(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	id, _ := resp["tombstone_id"].(string)
	if id == "" {
		t.Fatalf("missing tombstone id: %v", resp)
	}
	return id
}

func TestDeleteRestoreCycle(t *testing.T) {
	ih, _, rh := setupHandlers(t)
	saveInvoice(t, ih, inv001)
	tombstone := deleteInvoice(t, ih, "INV-001")

	// Gone from the live set.
	getReq := httptest.NewRequest(http.MethodGet, "/invoices/get?no=INV-001", nil)
	getW := httptest.NewRecorder()
	ih.Get(getW, getReq)
	if getW.Code != http.StatusNotFound {
		t.Fatalf("deleted invoice still served: %d", getW.Code)
	}

	// Visible in the bin.
	binReq := httptest.NewRequest(http.MethodGet, "/recycle-bin", nil)
	binW := httptest.NewRecorder()
	rh.List(binW, binReq)
	var bin struct {
		Items []map[string]any `json:"items"`
		Count int              `json:"count"`
	}
	_ = json.Unmarshal(binW.Body.Bytes(), &bin)
	if bin.Count != 1 || bin.Items[0]["entity_id"] != "INV-001" {
		t.Fatalf("unexpected bin: %+v", bin)
	}

	// Restore brings it back under the same number.
	resReq := httptest.NewRequest(http.MethodPost, "/recycle-bin/restore?id="+tombstone, nil)
	resW := httptest.NewRecorder()
	rh.Restore(resW, resReq)
	if resW.Code != http.StatusOK {
		t.Fatalf("restore expected 200 got %d", resW.Code)
	}
	getW = httptest.NewRecorder()
	ih.Get(getW, httptest.NewRequest(http.MethodGet, "/invoices/get?no=INV-001", nil))
	if getW.Code != http.StatusOK {
		t.Fatalf("restored invoice not served: %d", getW.Code)
	}
}

func TestPurgeTerminal(t *testing.T) {
	ih, _, rh := setupHandlers(t)
	saveInvoice(t, ih, inv001)
	tombstone := deleteInvoice(t, ih, "INV-001")

	purgeReq := httptest.NewRequest(http.MethodPost, "/recycle-bin/purge?id="+tombstone, nil)
	purgeW := httptest.NewRecorder()
	rh.Purge(purgeW, purgeReq)
	if purgeW.Code != http.StatusOK {
		t.Fatalf("purge expected 200 got %d", purgeW.Code)
	}

	for _, path := range []string{"/recycle-bin/restore?id=" + tombstone, "/recycle-bin/purge?id=" + tombstone} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if path == "/recycle-bin/restore?id="+tombstone {
			rh.Restore(w, req)
		} else {
			rh.Purge(w, req)
		}
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s expected 404 got %d", path, w.Code)
		}
	}
}

func TestEmptyBinEndpoint(t *testing.T) {
	ih, _, rh := setupHandlers(t)
	for _, body := range []string{
		`{"invoice_no":"INV-A","items":[{"quantity":1,"rate":10}]}`,
		`{"invoice_no":"INV-B","items":[{"quantity":1,"rate":20}]}`,
		`{"invoice_no":"INV-C","items":[{"quantity":1,"rate":30}]}`,
	} {
		saveInvoice(t, ih, body)
	}
	for _, no := range []string{"INV-A", "INV-B", "INV-C"} {
		deleteInvoice(t, ih, no)
	}

	emptyReq := httptest.NewRequest(http.MethodPost, "/recycle-bin/empty", nil)
	emptyW := httptest.NewRecorder()
	rh.Empty(emptyW, emptyReq)
	if emptyW.Code != http.StatusOK {
		t.Fatalf("empty expected 200 got %d", emptyW.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(emptyW.Body.Bytes(), &resp)
	if resp["removed"].(float64) != 3 {
		t.Fatalf("expected 3 removed, got %v", resp["removed"])
	}

	listW := httptest.NewRecorder()
	rh.List(listW, httptest.NewRequest(http.MethodGet, "/recycle-bin", nil))
	var bin struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(listW.Body.Bytes(), &bin)
	if bin.Count != 0 {
		t.Fatalf("bin not empty: %d", bin.Count)
	}
}

func TestDeleteUnknownInvoice(t *testing.T) {
	ih, _, _ := setupHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/invoices/delete?no=NOPE", nil)
	w := httptest.NewRecorder()
	ih.Delete(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
