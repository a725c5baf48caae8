package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hmehta/billbook/internal/handlers"
	"github.com/hmehta/billbook/internal/httpx"
	"github.com/hmehta/billbook/internal/ledger"
	"github.com/hmehta/billbook/internal/recyclebin"
	"github.com/hmehta/billbook/internal/store"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. The store and the recycle bin are built here and injected into
// every handler; nothing holds a process-wide handle.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	st := store.NewGorm(db)
	bin := recyclebin.New(db)
	eng := ledger.New(st)

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	ih := handlers.NewInvoiceHandler(st, bin)
	mux.Handle("/invoices", methods(map[string]http.HandlerFunc{
		http.MethodGet:  ih.List,
		http.MethodPost: ih.Save,
	}))
	mux.Handle("/invoices/get", methods(map[string]http.HandlerFunc{http.MethodGet: ih.Get}))
	mux.Handle("/invoices/delete", methods(map[string]http.HandlerFunc{http.MethodPost: ih.Delete}))
	mux.Handle("/invoices/statement", methods(map[string]http.HandlerFunc{http.MethodGet: ih.Statement}))
	mux.Handle("/customers", methods(map[string]http.HandlerFunc{http.MethodGet: ih.Customers}))

	ph := handlers.NewPaymentHandler(st, eng)
	mux.Handle("/payments", methods(map[string]http.HandlerFunc{
		http.MethodGet:  ph.List,
		http.MethodPost: ph.Add,
	}))
	mux.Handle("/returns", methods(map[string]http.HandlerFunc{
		http.MethodGet:  ph.ListReturns,
		http.MethodPost: ph.AddReturn,
	}))

	rh := handlers.NewRecycleBinHandler(bin)
	mux.Handle("/recycle-bin", methods(map[string]http.HandlerFunc{http.MethodGet: rh.List}))
	mux.Handle("/recycle-bin/restore", methods(map[string]http.HandlerFunc{http.MethodPost: rh.Restore}))
	mux.Handle("/recycle-bin/purge", methods(map[string]http.HandlerFunc{http.MethodPost: rh.Purge}))
	mux.Handle("/recycle-bin/empty", methods(map[string]http.HandlerFunc{http.MethodPost: rh.Empty}))

	return withRecover(withLogging(mux))
}

// methods dispatches by verb and answers 405 with an Allow header otherwise.
func methods(m map[string]http.HandlerFunc) http.Handler {
	allow := ""
	for verb := range m {
		if allow != "" {
			allow += ","
		}
		allow += verb
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Any("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
