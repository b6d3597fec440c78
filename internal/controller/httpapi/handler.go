package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/Freeeeeet/loft_booking_bot/internal/controller"
	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/notify"
	"github.com/Freeeeeet/loft_booking_bot/internal/sanitizer"
	"github.com/Freeeeeet/loft_booking_bot/internal/service"
	"github.com/go-telegram/bot/models"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20

	webhookPath = "/telegram/webhook"

	headerAdminToken    = "X-Admin-Token"
	headerWebhookSecret = "X-Telegram-Bot-Api-Secret-Token"
)

type Ledger interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	GetByToken(ctx context.Context, token string) (*model.Booking, error)
	CancelByToken(ctx context.Context, token string) (*model.Booking, error)
	CancelByID(ctx context.Context, id int64, actorID string) (*model.Booking, error)
	ListActiveByDate(ctx context.Context, date model.Date) ([]*model.Booking, error)
	ListAllActive(ctx context.Context) ([]*model.Booking, error)
}

type SlotFinder interface {
	AvailableSlots(ctx context.Context, date model.Date, duration int) ([]model.Clock, error)
	IsOffered(date model.Date, at model.Clock, duration int) bool
}

// UpdateProcessor обработчик обновлений Telegram (BotController)
type UpdateProcessor interface {
	Process(ctx context.Context, sender controller.Sender, update *models.Update) error
}

// Webhook приём обновлений Telegram через HTTP
type Webhook struct {
	Processor UpdateProcessor
	Sender    controller.Sender
	Secret    string
	// AckFailedUpdates отвечать 200 на обновление, обработка которого упала,
	// чтобы Telegram не присылал его повторно
	AckFailedUpdates bool
}

type Options struct {
	Catalog     model.Catalog
	PhoneRegion string
	AdminToken  string
	AdminID     string
	Webhook     *Webhook

	// TrustedProxies подсети обратных прокси для определения IP клиента
	TrustedProxies []netip.Prefix
}

type Handler struct {
	ledger     Ledger
	slots      SlotFinder
	dispatcher notify.Dispatcher
	opts       Options
	logger     *zap.Logger
}

func NewHandler(ledger Ledger, slots SlotFinder, dispatcher notify.Dispatcher, opts Options, logger *zap.Logger) *Handler {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	return &Handler{
		ledger:     ledger,
		slots:      slots,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/bookings", h.ListBookings)
	router.POST("/api/bookings", h.CreateBooking)
	router.DELETE("/api/bookings", h.CancelBooking)
	router.GET("/api/slots", h.ListSlots)
	router.GET("/health", h.Health)

	if h.opts.Webhook != nil {
		router.POST(webhookPath, h.TelegramWebhook)
	}

	router.GlobalOPTIONS = http.HandlerFunc(preflight)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createBookingRequest struct {
	Date          model.Date  `json:"booking_date"`
	Time          model.Clock `json:"booking_time"`
	Service       string      `json:"service"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
}

type createBookingResponse struct {
	Booking     *model.Booking `json:"booking"`
	CancelToken string         `json:"cancel_token"`
}

// CreateBooking прямое создание записи (веб-форма). Длительность берётся из каталога услуг.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body createBookingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	svc, ok := h.opts.Catalog.Find(body.Service)
	if !ok {
		writeError(w, service.ValidationErrors{{Field: "service", Message: "unknown service"}})
		return
	}

	phone := sanitizer.NormalizePhone(body.CustomerPhone, h.opts.PhoneRegion)
	if phone == "" {
		writeError(w, service.ValidationErrors{{Field: "customer_phone", Message: "customer_phone must be a valid phone number"}})
		return
	}

	if !h.slots.IsOffered(body.Date, body.Time, svc.DurationMinutes) {
		writeError(w, service.ValidationErrors{{Field: "booking_time", Message: "time is not offered on this date"}})
		return
	}

	booking, err := h.ledger.CreateBooking(r.Context(), model.BookingRequest{
		Date:            body.Date,
		Time:            body.Time,
		DurationMinutes: svc.DurationMinutes,
		Service:         svc.Title,
		CustomerName:    sanitizer.SanitizeName(body.CustomerName),
		CustomerPhone:   phone,
	})
	if err != nil {
		h.logFailure(r, "CreateBooking", err)
		writeError(w, err)
		return
	}

	h.dispatcher.Notify(r.Context(), notify.EventBookingCreated, booking)
	writeData(w, http.StatusCreated, createBookingResponse{Booking: booking, CancelToken: booking.CancelToken})
}

// ListBookings по токену доступна владельцу записи, остальные выборки только администратору
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	if token := query.Get("token"); token != "" {
		booking, err := h.ledger.GetByToken(r.Context(), token)
		if err != nil {
			h.logFailure(r, "GetByToken", err)
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, booking)
		return
	}

	if !h.authorizeAdmin(w, r) {
		return
	}

	var (
		bookings []*model.Booking
		err      error
	)
	if raw := query.Get("date"); raw != "" {
		date, parseErr := model.ParseDate(raw)
		if parseErr != nil {
			badRequest(w, "Invalid date parameter: "+raw)
			return
		}
		bookings, err = h.ledger.ListActiveByDate(r.Context(), date)
	} else {
		bookings, err = h.ledger.ListAllActive(r.Context())
	}
	if err != nil {
		h.logFailure(r, "ListBookings", err)
		writeError(w, err)
		return
	}

	if bookings == nil {
		bookings = []*model.Booking{}
	}
	writeData(w, http.StatusOK, bookings)
}

// CancelBooking отмена по токену (клиент) или по id (администратор)
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	var (
		booking *model.Booking
		err     error
	)
	switch {
	case query.Get("token") != "":
		booking, err = h.ledger.CancelByToken(r.Context(), query.Get("token"))
	case query.Get("id") != "":
		id, parseErr := strconv.ParseInt(query.Get("id"), 10, 64)
		if parseErr != nil || id <= 0 {
			badRequest(w, "Invalid id parameter: "+query.Get("id"))
			return
		}
		if !h.authorizeAdmin(w, r) {
			return
		}
		booking, err = h.ledger.CancelByID(r.Context(), id, h.opts.AdminID)
	default:
		badRequest(w, "token or id parameter is required")
		return
	}
	if err != nil {
		h.logFailure(r, "CancelBooking", err)
		writeError(w, err)
		return
	}

	h.dispatcher.Notify(r.Context(), notify.EventBookingCancelled, booking)
	writeData(w, http.StatusOK, booking)
}

type slotsResponse struct {
	Date    model.Date    `json:"date"`
	Service string        `json:"service"`
	Slots   []model.Clock `json:"slots"`
}

func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	date, err := model.ParseDate(query.Get("date"))
	if err != nil {
		badRequest(w, "Invalid date parameter: "+query.Get("date"))
		return
	}
	svc, ok := h.opts.Catalog.Find(query.Get("service"))
	if !ok {
		writeError(w, service.ValidationErrors{{Field: "service", Message: "unknown service"}})
		return
	}

	slots, err := h.slots.AvailableSlots(r.Context(), date, svc.DurationMinutes)
	if err != nil {
		h.logFailure(r, "ListSlots", err)
		writeError(w, err)
		return
	}
	if slots == nil {
		slots = []model.Clock{}
	}

	writeData(w, http.StatusOK, slotsResponse{Date: date, Service: svc.Title, Slots: slots})
}

// TelegramWebhook принимает одно обновление Telegram
func (h *Handler) TelegramWebhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	hook := h.opts.Webhook

	if hook.Secret != "" && !secureEqual(r.Header.Get(headerWebhookSecret), hook.Secret) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}

	var update models.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		badRequest(w, "Invalid update")
		return
	}

	if err := hook.Processor.Process(r.Context(), hook.Sender, &update); err != nil {
		h.logger.Error("Failed to process webhook update",
			zap.String("request_id", requestID(r.Context())),
			zap.Int64("update_id", update.ID),
			zap.Bool("acknowledged", hook.AckFailedUpdates),
			zap.Error(err))
		if !hook.AckFailedUpdates {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) authorizeAdmin(w http.ResponseWriter, r *http.Request) bool {
	if h.opts.AdminToken == "" || !secureEqual(r.Header.Get(headerAdminToken), h.opts.AdminToken) {
		writeError(w, service.ErrUnauthorized)
		return false
	}
	return true
}

func (h *Handler) logFailure(r *http.Request, handler string, err error) {
	h.logger.Warn("Request failed",
		zap.String("request_id", requestID(r.Context())),
		zap.String("handler", handler),
		zap.Error(err))
}

func secureEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
