package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/export"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

// StatusFunc reports live daemon state for /api/status.
type StatusFunc func() any

type handler struct {
	svc    *control.Service
	status StatusFunc
}

// NewRouter builds the HTTP surface of the daemon: the REST API used by the
// options and popup pages plus the WebSocket endpoint for surfaces.
func NewRouter(svc *control.Service, ws http.Handler, status StatusFunc, allowedOrigins []string) http.Handler {
	h := &handler{svc: svc, status: status}
	router := mux.NewRouter()

	router.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	}).Methods("GET")
	router.HandleFunc("/api/status", h.getStatus).Methods("GET")

	router.HandleFunc("/api/today", h.getToday).Methods("GET")
	router.HandleFunc("/api/week", h.getWeek).Methods("GET")
	router.HandleFunc("/api/days", h.getDays).Methods("GET")
	router.HandleFunc("/api/export.parquet", h.exportParquet).Methods("GET")

	router.HandleFunc("/api/settings", h.getSettings).Methods("GET")
	router.HandleFunc("/api/settings/nudges", h.setNudges).Methods("PUT")
	router.HandleFunc("/api/settings/global", h.setGlobal).Methods("PUT")

	router.HandleFunc("/api/limits", h.getLimits).Methods("GET")
	router.HandleFunc("/api/limits", h.addLimit).Methods("POST")
	router.HandleFunc("/api/limits/{domain}", h.removeLimit).Methods("DELETE")

	router.HandleFunc("/api/reset-today", h.resetToday).Methods("POST")
	router.HandleFunc("/api/clear-all", h.clearAll).Methods("POST")

	if ws != nil {
		router.Handle("/ws", ws).Methods("GET")
	}
	router.Use(guardMutations(allowedOrigins))

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
	return c.Handler(router)
}

// guardMutations rejects state-changing requests sent by pages outside
// allowedOrigins and bodies that are not JSON. CORS headers alone do not stop
// a simple cross-site POST from reaching the handler.
func guardMutations(allowedOrigins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if origin := r.Header.Get("Origin"); origin != "" && !originAllowed(origin, allowedOrigins) {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			if r.ContentLength != 0 {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || mediaType != "application/json" {
					http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed matches origin against patterns that may hold a single "*"
// wildcard, the same form rs/cors accepts.
func originAllowed(origin string, patterns []string) bool {
	origin = strings.ToLower(origin)
	for _, p := range patterns {
		p = strings.ToLower(p)
		if p == "*" || p == origin {
			return true
		}
		if prefix, suffix, ok := strings.Cut(p, "*"); ok &&
			len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, control.ErrInvalidDomain) || errors.Is(err, control.ErrInvalidLimit) ||
		errors.Is(err, control.ErrInvalidRange) {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func (h *handler) getStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, map[string]string{})
		return
	}
	writeJSON(w, h.status())
}

func (h *handler) getToday(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Today(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (h *handler) getWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.svc.Week(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, week)
}

// getDays serves ?from=YYYY-MM-DD&to=YYYY-MM-DD, or a single day with ?day=.
func (h *handler) getDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if day := q.Get("day"); day != "" {
		key, err := ledger.ParseDayKey(day)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stats, err := h.svc.Day(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, stats)
		return
	}

	from, err := ledger.ParseDayKey(q.Get("from"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := ledger.ParseDayKey(q.Get("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	days, err := h.svc.Range(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, days)
}

func (h *handler) exportParquet(w http.ResponseWriter, r *http.Request) {
	n := control.WeekDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > control.MaxDays {
			http.Error(w, "days must be between 1 and "+strconv.Itoa(control.MaxDays), http.StatusBadRequest)
			return
		}
		n = parsed
	}

	days, err := h.svc.LastDays(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tabwarden-%s.parquet", days[len(days)-1].Key))
	if err := export.WriteParquet(w, days); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, st)
}

func (h *handler) setNudges(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st, err := h.svc.SetNudgeEnabled(r.Context(), req.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, st)
}

func (h *handler) setGlobal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hours   int `json:"hours"`
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st, err := h.svc.SetGlobalLimit(r.Context(), req.Hours, req.Minutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, st)
}

func (h *handler) getLimits(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, st.Limits)
}

func (h *handler) addLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain  string `json:"domain"`
		Minutes int    `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := h.svc.AddLimit(r.Context(), req.Domain, req.Minutes)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"domain": string(d)})
}

func (h *handler) removeLimit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.svc.RemoveLimit(r.Context(), vars["domain"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) resetToday(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetToday(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) clearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
