package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the rendering every accepted date is converted to.
const DateLayout = "02/01/2006"

// dateLayouts are tried in order; single-digit day and month are accepted.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
}

var reVietnameseDate = regexp.MustCompile(`(?i)(\d{1,2})\s*tháng\s*(\d{1,2})\s*năm\s*(\d{4})`)

// Date parses raw with the fixed layouts, then the "<d> tháng <m> năm <y>" form,
// and renders dd/mm/yyyy. Returns "" when nothing matches.
func Date(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}

	m := reVietnameseDate.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%02d/%02d/%s", day, month, m[3])
}
