package nlq

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"nlq-workers/internal/models"
	"nlq-workers/internal/nlq/patterns"
)

// RangeExtractor lifts date/time bounds out of "from X to Y" and "between X and Y" phrases.
type RangeExtractor struct {
	lib *patterns.Library
}

func NewRangeExtractor(lib *patterns.Library) *RangeExtractor {
	return &RangeExtractor{lib: lib}
}

// Extract works on raw text. Without a range phrase every bound is unset, even when the
// text carries dates or times. Within a bound the first time pattern in declared order
// wins, so "1:00PM" yields "1:00".
func (r *RangeExtractor) Extract(text string) models.DateTimeRange {
	return r.extract(text, firstMatch)
}

// ExtractPrecise is Extract with the longest time literal kept, so meridiem suffixes
// survive for ResolveRange.
func (r *RangeExtractor) ExtractPrecise(text string) models.DateTimeRange {
	return r.extract(text, longestMatch)
}

func (r *RangeExtractor) extract(text string, pickTime func([]*regexp.Regexp, string) string) models.DateTimeRange {
	startText, endText := r.rangeBounds(text)
	if startText == "" || endText == "" {
		return models.DateTimeRange{}
	}

	rng := models.DateTimeRange{
		StartDate: firstMatch(r.lib.DatePatterns(), startText),
		StartTime: pickTime(r.lib.TimePatterns(), startText),
		EndDate:   firstMatch(r.lib.DatePatterns(), endText),
		EndTime:   pickTime(r.lib.TimePatterns(), endText),
	}
	if rng.EndTime != "" && rng.EndDate == "" && rng.StartDate != "" {
		rng.EndDate = rng.StartDate
	}
	return rng
}

// Loose returns every date and time literal in the text, in pattern order.
// Extract never assigns these; they are reported for diagnostics only.
func (r *RangeExtractor) Loose(text string) (dates, times []string) {
	for _, re := range r.lib.DatePatterns() {
		dates = append(dates, re.FindAllString(text, -1)...)
	}
	for _, re := range r.lib.TimePatterns() {
		times = append(times, re.FindAllString(text, -1)...)
	}
	return dates, times
}

// rangeBounds honors only the first range phrase form that matches.
func (r *RangeExtractor) rangeBounds(text string) (string, string) {
	for _, re := range r.lib.RangePatterns() {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], m[2]
		}
	}
	return "", ""
}

// firstMatch tries patterns in declared order and returns the leftmost match of the
// first pattern that hits.
func firstMatch(res []*regexp.Regexp, text string) string {
	for _, re := range res {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

func longestMatch(res []*regexp.Regexp, text string) string {
	best := ""
	for _, re := range res {
		if m := re.FindString(text); len(m) > len(best) {
			best = m
		}
	}
	return best
}

// ResolvedRange is a DateTimeRange parsed into instants. A nil bound is open.
type ResolvedRange struct {
	Start *time.Time
	End   *time.Time
}

var (
	ordinalPattern = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)`)
	clockPattern   = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*(AM|PM)?$`)
)

var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ResolveRange parses the raw literals of rng in loc. A bound without a time starts at
// midnight; a bound whose date does not parse is left open. ok is false when neither
// bound resolved.
func ResolveRange(rng models.DateTimeRange, loc *time.Location) (ResolvedRange, bool) {
	if loc == nil {
		loc = time.UTC
	}
	var out ResolvedRange
	if t, ok := resolveInstant(rng.StartDate, rng.StartTime, loc); ok {
		out.Start = &t
	}
	if t, ok := resolveInstant(rng.EndDate, rng.EndTime, loc); ok {
		out.End = &t
	}
	return out, out.Start != nil || out.End != nil
}

func resolveInstant(date, clock string, loc *time.Location) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	day, ok := parseDate(date, loc)
	if !ok {
		return time.Time{}, false
	}
	if clock == "" {
		return day, true
	}
	h, m, s, ok := parseClock(clock)
	if !ok {
		return day, true
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, loc), true
}

func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	cleaned := ordinalPattern.ReplaceAllString(raw, "$1")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClock(raw string) (int, int, int, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	switch strings.ToUpper(m[4]) {
	case "PM":
		if h < 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	if h > 23 || min > 59 || sec > 59 {
		return 0, 0, 0, false
	}
	return h, min, sec, true
}
