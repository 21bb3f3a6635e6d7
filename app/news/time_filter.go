package news

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type WindowKind string

const (
	WindowToday        WindowKind = "today"
	WindowRelativeDay  WindowKind = "relative_day"
	WindowUnrestricted WindowKind = "unrestricted"
)

// TimeFilterMode selects both the upstream date-range hint and the local
// post-filter predicate. EndHour is exclusive.
type TimeFilterMode struct {
	Kind      WindowKind
	DayOffset int
	StartHour int
	EndHour   int
}

func TodayWindow(startHour, endHour int) TimeFilterMode {
	return TimeFilterMode{Kind: WindowToday, StartHour: startHour, EndHour: endHour}
}

func RelativeDayWindow(dayOffset, startHour, endHour int) TimeFilterMode {
	return TimeFilterMode{Kind: WindowRelativeDay, DayOffset: dayOffset, StartHour: startHour, EndHour: endHour}
}

func Unrestricted() TimeFilterMode {
	return TimeFilterMode{Kind: WindowUnrestricted}
}

func (m TimeFilterMode) Validate() error {
	switch m.Kind {
	case WindowUnrestricted:
		return nil
	case WindowToday, WindowRelativeDay:
	default:
		return fmt.Errorf("unknown window mode %q", m.Kind)
	}

	if m.StartHour < 0 || m.EndHour > 24 || m.StartHour >= m.EndHour {
		return fmt.Errorf("invalid hour window %d-%d", m.StartHour, m.EndHour)
	}
	if m.DayOffset < 0 {
		return fmt.Errorf("day offset must be non-negative, got %d", m.DayOffset)
	}
	if m.Kind == WindowToday && m.DayOffset != 0 {
		return fmt.Errorf("today window does not take a day offset")
	}
	return nil
}

// DateRangeHint is the search provider's "tbs" value for the mode.
func (m TimeFilterMode) DateRangeHint() string {
	if m.Kind == WindowRelativeDay && m.DayOffset > 0 {
		return fmt.Sprintf("qdr:d%d", m.DayOffset+1)
	}
	return "qdr:d"
}

func (m TimeFilterMode) String() string {
	switch m.Kind {
	case WindowToday:
		return fmt.Sprintf("today %02d:00-%02d:00", m.StartHour, m.EndHour)
	case WindowRelativeDay:
		return fmt.Sprintf("%d day(s) ago %02d:00-%02d:00", m.DayOffset, m.StartHour, m.EndHour)
	default:
		return "last 24 hours"
	}
}

// DateLayout is one attempt in the ordered list of publication date parsers.
type DateLayout struct {
	Name   string
	Layout string
}

// DefaultDateLayouts lists every format observed in provider date fields,
// primary first. Layouts without a zone are read as UTC.
var DefaultDateLayouts = []DateLayout{
	{Name: "serpapi", Layout: "1/2/2006, 3:04 PM, +0000 UTC"},
	{Name: "serpapi-short", Layout: "Jan 2, 2006, 3:04 PM"},
	{Name: "rfc1123z", Layout: time.RFC1123Z},
	{Name: "rfc1123", Layout: time.RFC1123},
	{Name: "rfc3339", Layout: time.RFC3339},
}

var ErrUnparseableDate = errors.New("unparseable publication date")

var reMeridiem = regexp.MustCompile(`(?i)\b[ap]\.?m\b\.?`)

// Parse tries a single layout. Lower-case and dotted meridiems ("pm", "p.m.")
// are accepted as well as "PM".
func (l DateLayout) Parse(raw string) (time.Time, error) {
	value := reMeridiem.ReplaceAllStringFunc(strings.TrimSpace(raw), func(m string) string {
		return strings.ToUpper(strings.ReplaceAll(m, ".", ""))
	})
	return time.Parse(l.Layout, value)
}

// ParsePublished tries every layout in order and returns the instant in UTC.
func ParsePublished(raw string, layouts []DateLayout) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparseableDate)
	}
	for _, layout := range layouts {
		if t, err := layout.Parse(raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
}

// Decision is the outcome of evaluating one publication timestamp.
type Decision struct {
	Local  time.Time
	Keep   bool
	Reason SkipReason
	Err    error
}

type TimeFilter struct {
	location *time.Location
	layouts  []DateLayout
	now      func() time.Time
}

func NewTimeFilter(location *time.Location) *TimeFilter {
	if location == nil {
		location = time.UTC
	}
	return &TimeFilter{
		location: location,
		layouts:  DefaultDateLayouts,
		now:      time.Now,
	}
}

// WithClock replaces the filter's notion of "now".
func (f *TimeFilter) WithClock(now func() time.Time) *TimeFilter {
	f.now = now
	return f
}

func (f *TimeFilter) Run(raw string, mode TimeFilterMode) Decision {
	published, err := ParsePublished(raw, f.layouts)
	if err != nil {
		return Decision{Reason: SkipBadDate, Err: err}
	}

	local := published.In(f.location)
	if f.keep(local, mode) {
		return Decision{Local: local, Keep: true}
	}
	return Decision{Local: local, Reason: SkipOutsideWindow}
}

func (f *TimeFilter) keep(local time.Time, mode TimeFilterMode) bool {
	switch mode.Kind {
	case WindowToday, WindowRelativeDay:
	default:
		return true
	}

	today := f.now().In(f.location)
	target := time.Date(today.Year(), today.Month(), today.Day()-mode.DayOffset, 0, 0, 0, 0, f.location)

	y, m, d := local.Date()
	if y != target.Year() || m != target.Month() || d != target.Day() {
		return false
	}

	return mode.StartHour <= local.Hour() && local.Hour() < mode.EndHour
}
