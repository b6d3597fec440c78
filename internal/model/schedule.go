package model

import (
	"fmt"
	"strings"
	"time"
)

// Window непрерывный интервал рабочего времени [Start, End)
type Window struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Minutes длительность окна
func (w Window) Minutes() int {
	return int(w.End - w.Start)
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// ParseWindow разбирает "11:00-14:00". Конец суток записывается как 24:00
func ParseWindow(s string) (Window, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q", s)
	}
	start, err := ParseClock(from)
	if err != nil {
		return Window{}, fmt.Errorf("window %q: %w", s, err)
	}
	var end Clock
	if strings.TrimSpace(to) == "24:00" {
		end = MinutesPerDay
	} else if end, err = ParseClock(to); err != nil {
		return Window{}, fmt.Errorf("window %q: %w", s, err)
	}
	if end <= start {
		return Window{}, fmt.Errorf("window %q: end must be after start", s)
	}
	return Window{Start: start, End: end}, nil
}

// ParseWindows разбирает список окон через запятую, окна должны идти по возрастанию и не пересекаться
func ParseWindows(s string) ([]Window, error) {
	var windows []Window
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		w, err := ParseWindow(part)
		if err != nil {
			return nil, err
		}
		if n := len(windows); n > 0 && w.Start < windows[n-1].End {
			return nil, fmt.Errorf("window %s overlaps or precedes %s", w, windows[n-1])
		}
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows in %q", s)
	}
	return windows, nil
}

// FormatWindows обратная операция к ParseWindows
func FormatWindows(windows []Window) string {
	parts := make([]string, len(windows))
	for i, w := range windows {
		parts[i] = w.String()
	}
	return strings.Join(parts, ",")
}

// WeeklySchedule рабочие окна по дням недели; отсутствие ключа означает выходной
type WeeklySchedule map[time.Weekday][]Window

// Clone возвращает глубокую копию
func (ws WeeklySchedule) Clone() WeeklySchedule {
	out := make(WeeklySchedule, len(ws))
	for day, windows := range ws {
		out[day] = append([]Window(nil), windows...)
	}
	return out
}
