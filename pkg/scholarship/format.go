package scholarship

import (
	"strings"
	"time"
)

// endTimeLayout renders as two-digit day, three-letter month, four-digit
// year, 24-hour clock. The month is uppercased after formatting.
const endTimeLayout = "02 Jan 2006 15:04"

// FormatEndTime renders a Unix-seconds timestamp in the fixed listing layout,
// e.g. 1718272800 -> "13 JUN 2024 10:00". Always UTC: the rendered value must
// be identical wherever it is computed, so ambient timezones are not
// consulted.
func FormatEndTime(unixSeconds uint64) string {
	t := time.Unix(int64(unixSeconds), 0).UTC()
	return strings.ToUpper(t.Format(endTimeLayout))
}
