package tui

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hylla/vimdo/internal/vim"
)

type Option func(*Model)

// WithClock injects the time source used by the clock readout and the
// double-d window.
func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func WithDeleteWindow(window time.Duration) Option {
	return func(m *Model) {
		if window > 0 {
			m.deleteWindow = window
		}
	}
}

// WithClockDisplay toggles the header clock and sets its layout.
func WithClockDisplay(show bool, layout string) Option {
	return func(m *Model) {
		m.showClock = show
		if layout != "" {
			m.clockFormat = layout
		}
	}
}

func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithNoticeHook observes every notification shown to the user.
func WithNoticeHook(hook func(string)) Option {
	return func(m *Model) {
		m.onNotice = hook
	}
}

// KeyConfig overrides single-key Normal-mode actions. Blank fields keep the default.
type KeyConfig struct {
	Insert  string
	Edit    string
	Toggle  string
	Delete  string
	Command string
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		override := func(target *[]string, raw string) {
			if strings.TrimSpace(raw) == "" {
				return
			}
			keys, _ := parseBindingKeys(raw, "")
			*target = keys
		}
		override(&m.bindings.Insert, cfg.Insert)
		override(&m.bindings.Toggle, cfg.Toggle)
		override(&m.bindings.Delete, cfg.Delete)
		override(&m.bindings.Command, cfg.Command)
		if strings.TrimSpace(cfg.Edit) != "" {
			keys, _ := parseBindingKeys(cfg.Edit, "")
			m.bindings.Edit = append(keys, vim.KeyEnter)
		}
	}
}

// parseBindingKeys turns a configured key into matcher names plus its help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) > 1 {
		return []string{strings.ToLower(raw)}, raw
	}
	r, _ := utf8.DecodeRuneInString(raw)
	if unicode.IsUpper(r) {
		return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
	}
	return []string{raw}, raw
}
