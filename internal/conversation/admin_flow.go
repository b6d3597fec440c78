package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/notify"
	"github.com/Freeeeeet/loft_booking_bot/internal/service"
	"go.uber.org/zap"
)

func (e *Engine) openAdmin(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	sess.Reset()
	if !in.IsAdmin {
		e.logger.Warn("Admin command from non-admin",
			zap.String("session_id", sess.ID),
			zap.String("user_id", in.UserID))
		return Reply{Text: textUnauthorized, Options: mainMenu()}, nil
	}

	sess.State = StateAdminMenu
	return Reply{Text: textAdminMenu, Options: adminMenu()}, nil
}

func (e *Engine) adminMenu(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	enterDate := Reply{Text: textAdminEnterDate, Options: withRestart(nil)}

	switch strings.TrimSpace(in.Text) {
	case BtnAdminDayOffAdd:
		sess.State = StateAdminDayOffAdd
		return enterDate, nil

	case BtnAdminDayOffRemove:
		sess.State = StateAdminDayOffRemove
		return enterDate, nil

	case BtnAdminWindows:
		sess.State = StateAdminWindowsDate
		return enterDate, nil

	case BtnAdminCancel:
		sess.State = StateAdminCancelID
		return Reply{Text: textAdminEnterID, Options: withRestart(nil)}, nil

	case BtnAdminList:
		bookings, err := e.ledger.ListAllActive(ctx)
		if err != nil {
			return Reply{}, err
		}
		if len(bookings) == 0 {
			return Reply{Text: textAdminNoBookings, Options: adminMenu()}, nil
		}
		return Reply{Text: formatBookings("📋 Активных:", bookings, true), Options: adminMenu()}, nil

	case BtnAdminPurge:
		n, err := e.ledger.PurgePast(ctx, e.slots.Today())
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: fmt.Sprintf(textAdminPurged, n), Options: adminMenu()}, nil
	}

	return Reply{Text: textAdminMenu, Options: adminMenu()}, nil
}

// adminDate разбирает дату; ok=false означает, что нужно переспросить
func adminDate(text string) (model.Date, Reply, bool) {
	date, err := model.ParseDate(text)
	if err != nil {
		return model.Date{}, Reply{Text: textInvalidDate, Options: withRestart(nil)}, false
	}
	return date, Reply{}, true
}

func (e *Engine) adminDayOffAdd(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	date, retry, ok := adminDate(in.Text)
	if !ok {
		return retry, nil
	}

	if err := e.schedule.AddDayOff(ctx, date); err != nil {
		return Reply{}, err
	}

	sess.Reset()
	return Reply{Text: fmt.Sprintf(textAdminDayOffAdded, date.Display()), Options: mainMenu()}, nil
}

func (e *Engine) adminDayOffRemove(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	date, retry, ok := adminDate(in.Text)
	if !ok {
		return retry, nil
	}

	removed, err := e.schedule.RemoveDayOff(ctx, date)
	if err != nil {
		return Reply{}, err
	}

	sess.Reset()
	text := textAdminDayOffOpened
	if !removed {
		text = textAdminDayOffAbsent
	}
	return Reply{Text: fmt.Sprintf(text, date.Display()), Options: mainMenu()}, nil
}

func (e *Engine) adminWindowsDate(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	date, retry, ok := adminDate(in.Text)
	if !ok {
		return retry, nil
	}

	sess.Draft.Date = date
	sess.State = StateAdminWindowsValue
	return Reply{
		Text:    fmt.Sprintf(textAdminWindowsValue, date.Display()),
		Options: withRestart([]string{WindowsClosed, WindowsReset}),
	}, nil
}

func (e *Engine) adminWindowsValue(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	date := sess.Draft.Date
	value := strings.ToLower(strings.TrimSpace(in.Text))

	var text string
	switch value {
	case WindowsReset:
		cleared, err := e.schedule.ClearCustomWindows(ctx, date)
		if err != nil {
			return Reply{}, err
		}
		text = fmt.Sprintf(textAdminWindowsReset, date.Display())
		if !cleared {
			text = fmt.Sprintf(textAdminWindowsNoop, date.Display())
		}

	case WindowsClosed, "-":
		if err := e.schedule.SetCustomWindows(ctx, date, nil); err != nil {
			return Reply{}, err
		}
		text = fmt.Sprintf(textAdminWindowsClosed, date.Display())

	default:
		windows, err := model.ParseWindows(value)
		if err != nil {
			return Reply{Text: textAdminInvalidWindows, Options: withRestart([]string{WindowsClosed, WindowsReset})}, nil
		}
		if err := e.schedule.SetCustomWindows(ctx, date, windows); err != nil {
			return Reply{}, err
		}
		text = fmt.Sprintf(textAdminWindowsSet, date.Display(), model.FormatWindows(windows))
	}

	sess.Reset()
	return Reply{Text: text, Options: mainMenu()}, nil
}

func (e *Engine) adminCancelID(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(in.Text), "#"), 10, 64)
	if err != nil || id <= 0 {
		return Reply{Text: textAdminInvalidID, Options: withRestart(nil)}, nil
	}

	actor := in.UserID
	if actor == "" {
		actor = sess.ID
	}

	booking, err := e.ledger.CancelByID(ctx, id, actor)
	switch {
	case errors.Is(err, service.ErrNotFound):
		sess.Reset()
		return Reply{Text: fmt.Sprintf(textAdminNotFound, id), Options: mainMenu()}, nil
	case errors.Is(err, service.ErrUnauthorized):
		sess.Reset()
		return Reply{Text: textUnauthorized, Options: mainMenu()}, nil
	case err != nil:
		return Reply{}, err
	}

	e.notify(ctx, notify.EventBookingCancelled, booking)
	sess.Reset()
	return Reply{Text: fmt.Sprintf(textAdminCancelled, booking.ID), Options: mainMenu()}, nil
}
