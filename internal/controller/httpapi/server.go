package httpapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	requestsPerMinute = 60
	requestBurst      = 20
)

// NewRouter собирает маршруты и стек middleware
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	router := httprouter.New()
	h.RegisterRoutes(router)

	limiter := NewIPRateLimiter(rate.Every(time.Minute/requestsPerMinute), requestBurst, h.opts.TrustedProxies)

	return Chain(router,
		Recovery(logger),
		RequestLogging(logger),
		CORS(),
		RateLimit(limiter, logger),
	)
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
