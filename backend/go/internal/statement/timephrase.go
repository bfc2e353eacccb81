package statement

import (
	"regexp"
	"strings"
	"time"

	"MedMemory/backend/go/internal/models"
)

// 解析置信度。
const (
	confidenceCount         = 0.85
	confidenceCountFallback = 0.7
	confidenceVagueQuantity = 0.75
	confidenceBareMarker    = 0.65
	confidenceExactDate     = 0.9
)

const enSpelledNumber = `(?:twenty|thirty|forty|fifty|sixty|seventy|eighty|ninety)(?:[\s-](?:one|two|three|four|five|six|seven|eight|nine))?` +
	`|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen`

var (
	cnCountPattern = regexp.MustCompile(`(最近|近|过去|这)(\d+|[零〇一二两俩三四五六七八九十]+|几|些|半)个?(天|日|周|星期|月)`)
	enCountPattern = regexp.MustCompile(`(?i)\b(?:last|past|recent|previous)\s+(\d+|several|half(?:\s+an?)?|` + enSpelledNumber + `)\s+(days?|weeks?|months?)\b`)

	cnVaguePattern = regexp.MustCompile(`(最近|这|近)(好几|许多|多)个?(天|日|周|星期|月)`)
	enVaguePattern = regexp.MustCompile(`(?i)\b(?:last|past|recent|previous|these|this)\s+(?:few|couple(?:\s+of)?)\s+(days|weeks|months)\b`)

	isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

type unit int

const (
	unitDay unit = iota
	unitWeek
	unitMonth
)

func parseUnit(s string) unit {
	s = strings.ToLower(s)
	switch {
	case s == "周" || s == "星期" || strings.HasPrefix(s, "week"):
		return unitWeek
	case s == "月" || strings.HasPrefix(s, "month"):
		return unitMonth
	}
	return unitDay
}

func (u unit) days(n int) int {
	switch u {
	case unitWeek:
		return n * 7
	case unitMonth:
		return n * 30
	}
	return n
}

// halfDays: 半个月 15 天，半周 3 天，半天按 1 天计。
func (u unit) halfDays() int {
	switch u {
	case unitWeek:
		return 3
	case unitMonth:
		return 15
	}
	return 1
}

// vagueDays 是“好几天”“the last few weeks”这类说法的固定回看天数。
func (u unit) vagueDays() int {
	switch u {
	case unitWeek:
		return 14
	case unitMonth:
		return 30
	}
	return 5
}

func (u unit) precision() models.Precision {
	switch u {
	case unitWeek:
		return models.PrecisionWeekRange
	case unitMonth:
		return models.PrecisionMonthRange
	}
	return models.PrecisionDayRange
}

type bareMarker struct {
	phrase    string
	days      int
	precision models.Precision
}

var bareMarkers = []bareMarker{
	{"最近", 14, models.PrecisionVagueRecent},
	{"近期", 30, models.PrecisionVagueNearterm},
	{"recently", 14, models.PrecisionVagueRecent},
	{"lately", 30, models.PrecisionVagueNearterm},
	{"near term", 30, models.PrecisionVagueNearterm},
}

type dayAnchor struct {
	phrase string
	offset int
}

// 较长的短语排在前面，避免 "day before yesterday" 被 "yesterday" 抢先匹配。
var dayAnchors = []dayAnchor{
	{"day before yesterday", 2},
	{"前天", 2},
	{"yesterday", 1},
	{"昨天", 1},
	{"today", 0},
	{"今天", 0},
}

// Parser 把相对或模糊的时间短语解析为截至今天的时间窗口。
type Parser struct {
	// Now 为 nil 时使用 time.Now。
	Now func() time.Time
}

// ParseTimePhrase 使用当前时间解析 text，没有时间信息时返回 nil。
func ParseTimePhrase(text string) *models.TimeParse {
	return Parser{}.Parse(text)
}

// Parse 依次尝试：数量+单位、模糊数量+单位、明确日期、单独的模糊标记。
func (p Parser) Parse(text string) *models.TimeParse {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	today := startOfDay(p.now())

	if r := p.parseCount(t, today); r != nil {
		return r
	}
	if r := parseVagueQuantity(t, today); r != nil {
		return r
	}
	if r := parseExactDay(t, today); r != nil {
		return r
	}
	lower := strings.ToLower(t)
	for _, m := range bareMarkers {
		if strings.Contains(lower, m.phrase) {
			return window(today, m.days, m.precision, true, confidenceBareMarker, m.phrase)
		}
	}
	return nil
}

func (p Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p Parser) parseCount(t string, today time.Time) *models.TimeParse {
	m := cnCountPattern.FindStringSubmatch(t)
	if m == nil {
		m = enCountPattern.FindStringSubmatch(t)
		if m != nil {
			// 英文模式没有关系词分组，补齐下标使两种模式一致。
			m = []string{m[0], "", m[1], m[2]}
		}
	}
	if m == nil {
		return nil
	}
	raw, u := strings.ToLower(m[2]), parseUnit(m[3])

	if raw == "半" || strings.HasPrefix(raw, "half") {
		return window(today, u.halfDays(), u.precision(), true, confidenceCount, m[0])
	}
	n, ok := parseCount(raw)
	conf := confidenceCount
	if !ok {
		n, conf = severalCount, confidenceCountFallback
	}
	return window(today, u.days(n), u.precision(), true, conf, m[0])
}

func parseVagueQuantity(t string, today time.Time) *models.TimeParse {
	var phrase, rawUnit string
	if m := cnVaguePattern.FindStringSubmatch(t); m != nil {
		phrase, rawUnit = m[0], m[3]
	} else if m := enVaguePattern.FindStringSubmatch(t); m != nil {
		phrase, rawUnit = m[0], m[1]
	} else {
		return nil
	}
	u := parseUnit(rawUnit)
	return window(today, u.vagueDays(), u.precision(), true, confidenceVagueQuantity, phrase)
}

func parseExactDay(t string, today time.Time) *models.TimeParse {
	if m := isoDatePattern.FindStringSubmatch(t); m != nil {
		if d, err := time.ParseInLocation("2006-01-02", m[1], today.Location()); err == nil {
			return &models.TimeParse{
				TimeWindow: models.TimeWindow{Start: d, Precision: models.PrecisionExactDate},
				Confidence: confidenceExactDate,
				Phrase:     m[1],
			}
		}
	}
	lower := strings.ToLower(t)
	for _, a := range dayAnchors {
		if strings.Contains(lower, a.phrase) {
			return window(today, a.offset, models.PrecisionExactDate, false, confidenceExactDate, a.phrase)
		}
	}
	return nil
}

func window(today time.Time, lookbackDays int, precision models.Precision, approximate bool, confidence float64, phrase string) *models.TimeParse {
	return &models.TimeParse{
		TimeWindow: models.TimeWindow{
			Start:       today.AddDate(0, 0, -lookbackDays),
			Precision:   precision,
			Approximate: approximate,
		},
		Confidence: confidence,
		Phrase:     phrase,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
