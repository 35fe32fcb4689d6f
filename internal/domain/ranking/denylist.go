package ranking

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultDenylist holds content repositories (lists, books, interview prep)
// that rank on stars but are not software.
var defaultDenylist = []string{
	"996icu/996.ICU",
	"freeCodeCamp/freeCodeCamp",
	"EbookFoundation/free-programming-books",
	"sindresorhus/awesome",
	"getify/You-Dont-Know-JS",
	"airbnb/javascript",
	"github/gitignore",
	"jwasham/coding-interview-university",
	"kamranahmedse/developer-roadmap",
	"h5bp/html5-boilerplate",
	"toddmotto/public-apis",
	"resume/resume.github.com",
	"nvbn/thefuck",
	"h5bp/Front-end-Developer-Interview-Questions",
	"jlevy/the-art-of-command-line",
	"google/material-design-icons",
	"mtdvio/every-programmer-should-know",
	"justjavac/free-programming-books-zh_CN",
	"vuejs/awesome-vue",
	"josephmisiti/awesome-machine-learning",
	"ossu/computer-science",
	"NARKOZ/hacker-scripts",
	"papers-we-love/papers-we-love",
	"danistefanovic/build-your-own-x",
	"thedaviddias/Front-End-Checklist",
	"Trinea/android-open-project",
	"donnemartin/system-design-primer",
	"Snailclimb/JavaGuide",
	"xingshaocheng/architect-awesome",
	"FreeCodeCampChina/freecodecamp.cn",
	"vinta/awesome-python",
	"avelino/awesome-go",
	"wasabeef/awesome-android-ui",
	"vsouza/awesome-ios",
	"enaqx/awesome-react",
	"awesomedata/awesome-public-datasets",
	"tiimgreen/github-cheat-sheet",
	"CyC2018/Interview-Notebook",
	"CyC2018/CS-Notes",
	"kdn251/interviews",
	"minimaxir/big-list-of-naughty-strings",
	"k88hudson/git-flight-rules",
	"Kickball/awesome-selfhosted",
	"jackfrued/Python-100-Days",
	"public-apis/public-apis",
	"scutan90/DeepLearning-500-questions",
	"MisterBooo/LeetCodeAnimation",
	"awesome-selfhosted/awesome-selfhosted",
	"yangshun/tech-interview-handbook",
	"goldbergyoni/nodebestpractices",
	"jaywcjlove/awesome-mac",
	"labuladong/fucking-algorithm",
	"aymericdamien/TensorFlow-Examples",
	"Hack-with-Github/Awesome-Hacking",
	"30-seconds/30-seconds-of-interviews",
	"30-seconds/30-seconds-of-code",
	"30-seconds/30-seconds-of-css",
	"30-seconds/30-seconds-of-python",
	"30-seconds/30-seconds-of-react",
	"30-seconds/30-seconds-of-golang",
	"30-seconds/30-seconds-of-csharp",
	"30-seconds/30-seconds-of-php",
	"30-seconds/30-seconds-of-dart",
	"sindresorhus/awesome-nodejs",
	"tuvtran/project-based-learning",
	"ripienaar/free-for-dev",
	"ryanmcdermott/clean-code-javascript",
	"doocs/advanced-java",
	"iluwatar/java-design-patterns",
	"azl397985856/leetcode",
	"trekhleb/javascript-algorithms",
	"521xueweihan/HelloGitHub",
	"florinpop17/app-ideas",
}

// Denylist is a case-insensitive set of "owner/name" entries.
type Denylist struct {
	names map[string]struct{}
}

// NewDenylist builds a denylist from full names.
func NewDenylist(names ...string) *Denylist {
	d := &Denylist{names: make(map[string]struct{}, len(names))}
	d.Add(names...)
	return d
}

// DefaultDenylist returns the built-in list of content repositories.
func DefaultDenylist() *Denylist {
	return NewDenylist(defaultDenylist...)
}

// Add inserts names; blanks are ignored.
func (d *Denylist) Add(names ...string) {
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			d.names[n] = struct{}{}
		}
	}
}

// Contains reports whether fullName is denied.
func (d *Denylist) Contains(fullName string) bool {
	_, ok := d.names[strings.ToLower(fullName)]
	return ok
}

// Len returns the number of entries.
func (d *Denylist) Len() int { return len(d.names) }

// denylistFile is the YAML layout of an operator supplied denylist.
type denylistFile struct {
	// ReplaceDefaults drops the built-in entries instead of extending them.
	ReplaceDefaults bool     `yaml:"replace_defaults"`
	Repos           []string `yaml:"repos"`
}

// LoadDenylist reads a YAML denylist. An empty path returns the defaults.
func LoadDenylist(path string) (*Denylist, error) {
	if path == "" {
		return DefaultDenylist(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDenylist, err)
	}
	return ParseDenylist(raw)
}

// ParseDenylist decodes a YAML denylist document.
func ParseDenylist(raw []byte) (*Denylist, error) {
	var f denylistFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDenylist, err)
	}
	for _, r := range f.Repos {
		if strings.Count(strings.TrimSpace(r), "/") != 1 {
			return nil, fmt.Errorf("%w: %q is not owner/name", ErrDenylist, r)
		}
	}
	d := NewDenylist()
	if !f.ReplaceDefaults {
		d.Add(defaultDenylist...)
	}
	d.Add(f.Repos...)
	return d, nil
}
