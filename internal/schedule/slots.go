package schedule

import (
	"iter"

	"github.com/Freeeeeet/loft_booking_bot/internal/model"
)

// Slots перечисляет времена начала внутри окон с шагом step.
// Слот помещается, если start+duration <= конец окна. step <= 0 означает шаг, равный duration.
// Последовательность ленивая и может обходиться повторно.
func Slots(windows []model.Window, duration, step int) iter.Seq[model.Clock] {
	if step <= 0 {
		step = duration
	}
	return func(yield func(model.Clock) bool) {
		if duration <= 0 {
			return
		}
		for _, w := range windows {
			for start := w.Start; start.Add(duration) <= w.End; start = start.Add(step) {
				if !yield(start) {
					return
				}
			}
		}
	}
}

// Available отбрасывает кандидатов, уже занятых активными записями на эту дату
func Available(candidates iter.Seq[model.Clock], taken map[model.Clock]struct{}) iter.Seq[model.Clock] {
	return func(yield func(model.Clock) bool) {
		for slot := range candidates {
			if _, busy := taken[slot]; busy {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}
