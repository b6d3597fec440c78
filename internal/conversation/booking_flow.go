package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
	"github.com/Freeeeeet/loft_booking_bot/internal/notify"
	"github.com/Freeeeeet/loft_booking_bot/internal/sanitizer"
	"github.com/Freeeeeet/loft_booking_bot/internal/service"
	"go.uber.org/zap"
)

func (e *Engine) servicePrompt(text string) Reply {
	return Reply{Text: text, Options: withRestart(e.cfg.Catalog.Titles())}
}

func (e *Engine) datePrompt(text string) Reply {
	dates := e.slots.OpenDates()
	if len(dates) == 0 {
		return Reply{Text: textNoOpenDates, Options: withRestart(nil)}
	}
	return Reply{Text: text, Options: withRestart(dateOptions(dates))}
}

// timePrompt список свободного времени на дату черновика
func (e *Engine) timePrompt(ctx context.Context, sess *Session, text string) (Reply, error) {
	slots, err := e.slots.AvailableSlots(ctx, sess.Draft.Date, sess.Draft.Duration)
	if err != nil {
		return Reply{}, err
	}
	if len(slots) == 0 {
		sess.State = StateChooseDate
		return e.datePrompt(fmt.Sprintf(textDateFull, sess.Draft.Date.Display())), nil
	}
	return Reply{Text: text, Options: withRestart(timeOptions(slots))}, nil
}

func (e *Engine) startBooking(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	sess.Reset()
	sess.State = StateChooseService

	text := textChooseService
	if strings.HasPrefix(strings.TrimSpace(in.Text), CmdStart) {
		text = textWelcome + "\n\n" + textChooseService
	}
	return e.servicePrompt(text), nil
}

func (e *Engine) myBookings(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	sess.Reset()

	bookings, err := e.ledger.ListActiveByOwner(ctx, sess.ID)
	if err != nil {
		return Reply{}, err
	}
	if len(bookings) == 0 {
		return Reply{Text: textNoBookings, Options: mainMenu()}, nil
	}
	return Reply{Text: formatBookings("📋 У вас", bookings, false), Options: mainMenu()}, nil
}

func (e *Engine) chooseService(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	svc, ok := e.cfg.Catalog.Find(in.Text)
	if !ok {
		return e.servicePrompt(textUnknownService), nil
	}

	sess.Draft.Service = svc.Title
	sess.Draft.Duration = svc.DurationMinutes
	sess.State = StateChooseDate
	return e.datePrompt(textChooseDate), nil
}

func (e *Engine) chooseDate(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	date, err := model.ParseDate(in.Text)
	if err != nil {
		return e.datePrompt(textInvalidDate), nil
	}
	if !e.slots.InHorizon(date) {
		return e.datePrompt(textOutOfHorizon), nil
	}

	slots, err := e.slots.AvailableSlots(ctx, date, sess.Draft.Duration)
	if err != nil {
		return Reply{}, err
	}
	if len(slots) == 0 {
		return e.datePrompt(fmt.Sprintf(textDateFull, date.Display())), nil
	}

	sess.Draft.Date = date
	sess.Draft.Time = nil
	sess.State = StateChooseTime
	return Reply{
		Text:    fmt.Sprintf(textChooseTime, date.Display()),
		Options: withRestart(timeOptions(slots)),
	}, nil
}

func (e *Engine) chooseTime(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	at, err := model.ParseClock(in.Text)
	if err != nil {
		return e.timePrompt(ctx, sess, textInvalidTime)
	}

	// список мог устареть: проверяем по актуальному журналу
	slots, err := e.slots.AvailableSlots(ctx, sess.Draft.Date, sess.Draft.Duration)
	if err != nil {
		return Reply{}, err
	}
	if !slices.Contains(slots, at) {
		return e.timePrompt(ctx, sess, fmt.Sprintf(textTimeTaken, at))
	}

	sess.Draft.Time = &at
	sess.State = StateEnterName
	return Reply{Text: textEnterName, Options: withRestart(nil)}, nil
}

func (e *Engine) enterName(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	name := sanitizer.SanitizeName(in.Text)
	if name == "" {
		return Reply{Text: textEmptyName, Options: withRestart(nil)}, nil
	}

	sess.Draft.Name = name
	sess.State = StateEnterPhone
	return Reply{Text: textEnterPhone, Options: withRestart(nil), RequestPhone: true}, nil
}

func (e *Engine) enterPhone(ctx context.Context, sess *Session, in Inbound) (Reply, error) {
	phone := sanitizer.NormalizePhone(in.Text, e.cfg.PhoneRegion)
	if phone == "" {
		return Reply{Text: textInvalidPhone, Options: withRestart(nil), RequestPhone: true}, nil
	}
	if sess.Draft.Time == nil {
		return Reply{}, fmt.Errorf("session %s: draft has no time at %s", sess.ID, sess.State)
	}

	at := *sess.Draft.Time
	booking, err := e.ledger.CreateBooking(ctx, model.BookingRequest{
		Date:            sess.Draft.Date,
		Time:            at,
		DurationMinutes: sess.Draft.Duration,
		Service:         sess.Draft.Service,
		CustomerName:    sess.Draft.Name,
		CustomerPhone:   phone,
		OwnerID:         sess.ID,
	})

	switch {
	case errors.Is(err, service.ErrSlotUnavailable):
		// гонка проиграна: услуга и дата остаются, время выбирается заново
		e.logger.Info("Booking race lost",
			zap.String("session_id", sess.ID),
			zap.String("date", sess.Draft.Date.String()),
			zap.String("time", at.String()))

		sess.Draft.Time = nil
		slots, err := e.slots.AvailableSlots(ctx, sess.Draft.Date, sess.Draft.Duration)
		if err != nil {
			return Reply{}, err
		}
		if len(slots) == 0 {
			sess.State = StateChooseDate
			return e.datePrompt(fmt.Sprintf(textRaceLostNoSlots, at)), nil
		}
		sess.State = StateChooseTime
		return Reply{Text: fmt.Sprintf(textRaceLost, at), Options: withRestart(timeOptions(slots))}, nil

	case errors.Is(err, service.ErrValidation):
		e.logger.Warn("Booking draft rejected",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		if onlyPhoneRejected(err) {
			return Reply{Text: textInvalidPhone, Options: withRestart(nil), RequestPhone: true}, nil
		}
		// черновик не исправить вводом телефона, начинаем заново
		sess.Reset()
		return Reply{Text: errorReply(err), Options: mainMenu()}, nil

	case err != nil:
		return Reply{}, err
	}

	e.notify(ctx, notify.EventBookingCreated, booking)
	sess.Reset()
	return Reply{Text: formatConfirmation(booking), Options: mainMenu()}, nil
}

// onlyPhoneRejected true, если журнал отклонил запись только из-за телефона
func onlyPhoneRejected(err error) bool {
	var verrs service.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return false
	}
	for _, v := range verrs {
		if v.Field != "customer_phone" {
			return false
		}
	}
	return true
}
