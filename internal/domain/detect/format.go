package detect

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/okian/startrack/internal/domain/model"
)

var compactUnits = []struct {
	threshold float64
	suffix    string
}{
	{1e12, "t"},
	{1e9, "b"},
	{1e6, "m"},
	{1e3, "k"},
}

// CompactNumber abbreviates n with a k/m/b/t suffix and up to mantissa
// decimals, dropping trailing zeros: 123456 -> "123.5k" with mantissa 1.
// Values that round up to 1000 move to the next unit: 999950 -> "1m".
func CompactNumber(n int64, mantissa int) string {
	v := float64(n)
	unit := len(compactUnits)
	for i, u := range compactUnits {
		if math.Abs(v) >= u.threshold {
			unit = i
			break
		}
	}
	s := strconv.FormatFloat(scaleTo(v, unit), 'f', mantissa, 64)
	if r, err := strconv.ParseFloat(s, 64); err == nil && math.Abs(r) >= 1000 && unit > 0 {
		unit--
		s = strconv.FormatFloat(scaleTo(v, unit), 'f', mantissa, 64)
	}
	suffix := ""
	if unit < len(compactUnits) {
		suffix = compactUnits[unit].suffix
	}
	return trimMantissa(s) + suffix
}

// scaleTo divides v by the threshold of compactUnits[unit]; an out of range
// unit means no suffix.
func scaleTo(v float64, unit int) float64 {
	if unit >= len(compactUnits) {
		return v
	}
	return v / compactUnits[unit].threshold
}

// Percent formats a ratio with one optional decimal: 0.254 -> "25.4%".
func Percent(ratio float64) string {
	return trimMantissa(strconv.FormatFloat(ratio*100, 'f', 1, 64)) + "%"
}

// Thousands formats n with comma separators.
func Thousands(n int64) string {
	return humanize.Comma(n)
}

func trimMantissa(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

var hashtagReplacer = strings.NewReplacer("-", "", "_", "", ".", "", "#", "sharp", "+", "plus")

// Hashtag turns a name into a hashtag: "c++" -> "#cplus", "vue-next" -> "#vuenext".
func Hashtag(tag string) string {
	return "#" + hashtagReplacer.Replace(tag)
}

// Hashtags derives the owner, name and language tags of e, skipping repeats.
func Hashtags(e model.Entity) []string {
	tags := []string{Hashtag(e.Owner.Login)}
	if e.Owner.Login != e.Name {
		tags = append(tags, Hashtag(e.Name))
	}
	if e.Language != "" && e.Language != e.Owner.Login && e.Language != e.Name {
		tags = append(tags, Hashtag(e.Language))
	}
	return tags
}

// MergeHashtags concatenates tag lists keeping the first occurrence.
func MergeHashtags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range lists {
		for _, t := range l {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// RepoTag is how an entity is named inside a post.
func RepoTag(e model.Entity) string {
	return "*" + e.FullName + "*"
}
