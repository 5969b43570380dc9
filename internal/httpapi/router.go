package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"spbunet/api/internal/config"
	"spbunet/api/internal/logging"
	"spbunet/api/internal/metrics"
	"spbunet/api/internal/site"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Store  Store
	Auth   Auth // nil when Supabase is not configured
	Config config.Config
	Log    logrus.FieldLogger
}

type App struct {
	store Store
	auth  Auth
	cfg   config.Config
	log   logrus.FieldLogger
	otp   *otpLimiter
}

func NewRouter(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	app := &App{
		store: deps.Store,
		auth:  deps.Auth,
		cfg:   deps.Config,
		log:   log,
		otp:   newOTPLimiter(deps.Config.OTPInterval),
	}

	site.New(deps.Store, log).Register(r)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(au chi.Router) {
			au.Post("/verify", app.handleVerifySecret)
			au.Get("/session", app.handleSession)
			au.Post("/logout", app.handleLogout)

			au.Group(func(gt chi.Router) {
				gt.Use(app.requireAuthBackend)
				gt.Post("/check-email", app.handleCheckEmail)
				gt.Post("/login", app.handleLogin)
				gt.Post("/send-otp", app.handleSendOTP)
				gt.Post("/verify-otp", app.handleVerifyOTP)
				gt.Post("/verify-email", app.handleVerifyEmail)
				gt.With(app.requireAdmin).Post("/create-user", app.handleCreateUser)
			})
		})

		// Public reads.
		api.Get("/regions", app.handleListRegions)
		api.Get("/regions/{id}", app.handleGetRegion)
		api.Get("/locations", app.handleListLocations)
		api.Get("/locations/{id}", app.handleGetLocation)
		api.Get("/fuel-sales", app.handleListFuelSales)
		api.Get("/lpg-sales", app.handleListLPGSales)
		api.Get("/region-stats", app.handleListRegionStats)
		api.Get("/region-stats/{key}", app.handleGetRegionStat)
		api.Get("/settings", app.handleGetSettings)
		api.Get("/map/regions", app.handleMapRegions)
		api.Get("/map/regions/{shapeId}", app.handleMapResolve)

		api.Group(func(ad chi.Router) {
			ad.Use(app.requireAdmin)

			ad.Post("/regions", app.handleCreateRegion)
			ad.Put("/regions/{id}", app.handleUpdateRegion)
			ad.Delete("/regions/{id}", app.handleDeleteRegion)

			ad.Post("/locations", app.handleCreateLocation)
			ad.Put("/locations/{id}", app.handleUpdateLocation)
			ad.Delete("/locations/{id}", app.handleDeleteLocation)

			ad.Post("/fuel-sales", app.handleUpsertFuelSales)
			ad.Delete("/fuel-sales/{id}", app.handleDeleteFuelSale)
			ad.Post("/lpg-sales", app.handleUpsertLPGSales)
			ad.Delete("/lpg-sales/{id}", app.handleDeleteLPGSale)
			ad.Get("/sales/export", app.handleExportSales)

			ad.Post("/region-stats", app.handleUpsertRegionStat)
			ad.Post("/region-stats/recompute", app.handleRecomputeStats)
			ad.Delete("/region-stats/{key}", app.handleDeleteRegionStat)

			ad.Put("/settings", app.handlePutSettings)
		})
	})

	return r
}

// ---------- helpers ----------

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	var e apiError
	e.Error.Code = code
	e.Error.Message = message
	writeJSON(w, status, e)
}

const maxBodyBytes = 1 << 20

// decodeJSON reads at most limit bytes of JSON into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	if limit <= 0 {
		limit = maxBodyBytes
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeAPIError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "request body too large")
	case errors.Is(err, io.EOF):
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "request body required")
	default:
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
	}
	return false
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) (int64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil && n > 0
}
