package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/notify"
	"go.uber.org/zap"
)

// Inbound входящее сообщение от транспорта
type Inbound struct {
	SessionID string // стабильный идентификатор чата
	UserID    string // отправитель, для проверки прав администратора
	Text      string
	IsAdmin   bool
}

// Reply ответ транспорту. Options варианты быстрого ответа (кнопки)
type Reply struct {
	Text         string
	Options      []string
	RequestPhone bool
}

// Ledger операции журнала записей, нужные диалогу
type Ledger interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	CancelByID(ctx context.Context, id int64, actorID string) (*model.Booking, error)
	ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.Booking, error)
	ListAllActive(ctx context.Context) ([]*model.Booking, error)
	PurgePast(ctx context.Context, reference model.Date) (int64, error)
}

// SlotFinder свободные даты и слоты
type SlotFinder interface {
	Today() model.Date
	InHorizon(date model.Date) bool
	OpenDates() []model.Date
	AvailableSlots(ctx context.Context, date model.Date, duration int) ([]model.Clock, error)
}

// ScheduleEditor изменение исключений расписания администратором
type ScheduleEditor interface {
	AddDayOff(ctx context.Context, date model.Date) error
	RemoveDayOff(ctx context.Context, date model.Date) (bool, error)
	SetCustomWindows(ctx context.Context, date model.Date, windows []model.Window) error
	ClearCustomWindows(ctx context.Context, date model.Date) (bool, error)
}

type Config struct {
	Catalog     model.Catalog
	PhoneRegion string
}

// Engine конечный автомат диалога. Сообщения одной сессии обрабатываются строго по очереди,
// разные сессии параллельно.
type Engine struct {
	sessions   SessionStore
	ledger     Ledger
	slots      SlotFinder
	schedule   ScheduleEditor
	dispatcher notify.Dispatcher
	cfg        Config
	logger     *zap.Logger

	locks       *keyedMutex
	transitions map[transitionKey]stepFunc
	now         func() time.Time
}

func NewEngine(
	sessions SessionStore,
	ledger Ledger,
	slots SlotFinder,
	schedule ScheduleEditor,
	dispatcher notify.Dispatcher,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	e := &Engine{
		sessions:   sessions,
		ledger:     ledger,
		slots:      slots,
		schedule:   schedule,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
	e.transitions = e.transitionTable()
	return e
}

// inputKind класс входящего текста
type inputKind int

const (
	inputText inputKind = iota
	inputRestart
	inputStart
	inputMyBookings
	inputAdmin
)

var allInputKinds = []inputKind{inputText, inputRestart, inputStart, inputMyBookings, inputAdmin}

func classify(text string) inputKind {
	text = strings.TrimSpace(text)
	// "/start@loft_bot" в группах
	if cmd, _, ok := strings.Cut(text, "@"); ok && strings.HasPrefix(text, "/") {
		text = cmd
	}

	switch text {
	case CmdCancel, BtnRestart:
		return inputRestart
	case CmdStart, CmdBook, BtnBook:
		return inputStart
	case CmdMyBookings, BtnMyBookings:
		return inputMyBookings
	case CmdAdmin:
		return inputAdmin
	default:
		return inputText
	}
}

// anyState ключ перехода, действующего из любого состояния
const anyState State = "*"

type transitionKey struct {
	state State
	input inputKind
}

// stepFunc выполняет переход: меняет сессию и формирует ответ.
// Ожидаемые ошибки (неверный ввод, занятый слот) превращаются в ответ,
// возвращается только внутренняя ошибка.
type stepFunc func(ctx context.Context, sess *Session, in Inbound) (Reply, error)

func (e *Engine) transitionTable() map[transitionKey]stepFunc {
	return map[transitionKey]stepFunc{
		{anyState, inputRestart}:    e.restart,
		{anyState, inputStart}:      e.startBooking,
		{anyState, inputMyBookings}: e.myBookings,
		{anyState, inputAdmin}:      e.openAdmin,

		{StateChooseService, inputText}: e.chooseService,
		{StateChooseDate, inputText}:    e.chooseDate,
		{StateChooseTime, inputText}:    e.chooseTime,
		{StateEnterName, inputText}:     e.enterName,
		{StateEnterPhone, inputText}:    e.enterPhone,

		{StateAdminMenu, inputText}:         e.adminMenu,
		{StateAdminDayOffAdd, inputText}:    e.adminDayOffAdd,
		{StateAdminDayOffRemove, inputText}: e.adminDayOffRemove,
		{StateAdminWindowsDate, inputText}:  e.adminWindowsDate,
		{StateAdminWindowsValue, inputText}: e.adminWindowsValue,
		{StateAdminCancelID, inputText}:     e.adminCancelID,
	}
}

func (e *Engine) lookup(state State, input inputKind) stepFunc {
	if step, ok := e.transitions[transitionKey{state, input}]; ok {
		return step
	}
	if step, ok := e.transitions[transitionKey{anyState, input}]; ok {
		return step
	}
	return e.reprompt
}

// Handle обрабатывает одно входящее сообщение сессии.
// При внутренней ошибке сессия сбрасывается в Idle, пользователь получает общий ответ,
// а ошибка возвращается транспорту.
func (e *Engine) Handle(ctx context.Context, in Inbound) (Reply, error) {
	unlock := e.locks.Lock(in.SessionID)
	defer unlock()

	sess, err := e.sessions.Get(ctx, in.SessionID)
	if err != nil {
		e.logger.Error("Failed to load session",
			zap.String("session_id", in.SessionID),
			zap.Error(err))
		return Reply{Text: textFailure, Options: mainMenu()}, fmt.Errorf("load session: %w", err)
	}

	// права могли измениться между сообщениями
	if sess.State.IsAdmin() && !in.IsAdmin {
		sess.Reset()
	}

	from := sess.State
	step := e.lookup(sess.State, classify(in.Text))

	reply, err := step(ctx, sess, in)
	if err != nil {
		e.logger.Error("Transition failed, session reset",
			zap.String("session_id", in.SessionID),
			zap.String("state", string(from)),
			zap.Error(err))
		if delErr := e.sessions.Delete(ctx, in.SessionID); delErr != nil {
			e.logger.Error("Failed to reset session",
				zap.String("session_id", in.SessionID),
				zap.Error(delErr))
		}
		return Reply{Text: errorReply(err), Options: mainMenu()}, err
	}

	if sess.State == StateIdle {
		err = e.sessions.Delete(ctx, sess.ID)
	} else {
		sess.UpdatedAt = e.now()
		err = e.sessions.Save(ctx, sess)
	}
	if err != nil {
		e.logger.Error("Failed to store session",
			zap.String("session_id", in.SessionID),
			zap.Error(err))
		return Reply{Text: textFailure, Options: mainMenu()}, fmt.Errorf("store session: %w", err)
	}

	if from != sess.State {
		e.logger.Debug("Session transition",
			zap.String("session_id", in.SessionID),
			zap.String("from", string(from)),
			zap.String("to", string(sess.State)))
	}

	return reply, nil
}

// reprompt повторяет вопрос текущего состояния без смены состояния
func (e *Engine) reprompt(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	switch sess.State {
	case StateChooseService:
		return e.servicePrompt(textUnknownService), nil
	case StateChooseDate:
		return e.datePrompt(textChooseDate), nil
	case StateChooseTime:
		return e.timePrompt(ctx, sess, textInvalidTime)
	case StateEnterName:
		return Reply{Text: textEnterName, Options: withRestart(nil)}, nil
	case StateEnterPhone:
		return Reply{Text: textEnterPhone, Options: withRestart(nil), RequestPhone: true}, nil
	case StateAdminMenu:
		return Reply{Text: textAdminMenu, Options: adminMenu()}, nil
	case StateAdminDayOffAdd, StateAdminDayOffRemove, StateAdminWindowsDate:
		return Reply{Text: textAdminEnterDate, Options: withRestart(nil)}, nil
	case StateAdminWindowsValue:
		return Reply{
			Text:    fmt.Sprintf(textAdminWindowsValue, sess.Draft.Date.Display()),
			Options: withRestart([]string{WindowsClosed, WindowsReset}),
		}, nil
	case StateAdminCancelID:
		return Reply{Text: textAdminEnterID, Options: withRestart(nil)}, nil
	default:
		return Reply{Text: textIdleHint, Options: mainMenu()}, nil
	}
}

func (e *Engine) restart(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	sess.Reset()
	return Reply{Text: textRestarted, Options: mainMenu()}, nil
}

func (e *Engine) notify(ctx context.Context, event notify.Event, booking *model.Booking) {
	e.dispatcher.Notify(ctx, event, booking)
}
