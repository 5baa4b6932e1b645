// ABOUTME: Regex and keyword-table entity extraction from mixed Chinese/English text
// ABOUTME: Dispatches on the Entity variant of each expected default; never fails

package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// SortKind is the CustomEntity kind carrying a sort(1) direction flag.
const SortKind = "sort"

// Sort direction flags emitted for CustomEntity{Name: SortKind}.
const (
	SortDescending = "-hr"
	SortAscending  = "-h"
)

var (
	// c++ is tried from the preceding byte so it starts left of a bare "c".
	fileTypePattern = regexp.MustCompile(`(?i)(?:^|[^\w+])(c\+\+)|\b(javascript|typescript|markdown|python|golang|shell|rust|java|yaml|json|html|bash|text|cpp|css|log|yml|txt|py|rs|js|ts|md|sh|go|c)\b`)

	absPathPattern  = regexp.MustCompile(`(?:^|[^\w.~])(/[\w.\-/]*)`)
	homePathPattern = regexp.MustCompile(`(?:^|[^\w.])(~/[\w.\-/]*)`)
	relPathPattern  = regexp.MustCompile(`(?:^|[^\w.])(\.\.?/[\w.\-/]*)`)
	identPattern    = regexp.MustCompile(`[A-Za-z0-9_\-]+/?`)

	numberPattern  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

// fileTypeAliases normalizes vocabulary words to short extensions.
var fileTypeAliases = map[string]string{
	"python":     "py",
	"py":         "py",
	"rust":       "rs",
	"rs":         "rs",
	"golang":     "go",
	"go":         "go",
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"ts":         "ts",
	"java":       "java",
	"c++":        "cpp",
	"c":          "c",
	"cpp":        "cpp",
	"markdown":   "md",
	"md":         "md",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"shell":      "sh",
	"bash":       "sh",
	"sh":         "sh",
	"text":       "txt",
	"txt":        "txt",
	"html":       "html",
	"css":        "css",
	"log":        "log",
}

// cjkFileTypes maps Chinese file-type words, checked when no ASCII match exists.
var cjkFileTypes = keywordTable{
	{"日志", "log"},
	{"文本", "txt"},
	{"脚本", "sh"},
	{"配置", "yaml"},
}

// currentDirTable resolves phrases meaning the working directory.
var currentDirTable = keywordTable{
	{"current directory", "."},
	{"current dir", "."},
	{"current folder", "."},
	{"this directory", "."},
	{"this folder", "."},
	{"当前目录", "."},
	{"当前文件夹", "."},
	{"当前路径", "."},
	{"这个目录", "."},
	{"这里", "."},
	{"here", "."},
}

var dateTable = keywordTable{
	{"today", "today"},
	{"今天", "today"},
	{"yesterday", "yesterday"},
	{"昨天", "yesterday"},
	{"this week", "this_week"},
	{"本周", "this_week"},
	{"这周", "this_week"},
	{"recently", "recent"},
	{"recent", "recent"},
	{"lately", "recent"},
	{"最近", "recent"},
}

var operationTable = keywordTable{
	{"查找", "find"},
	{"搜索", "find"},
	{"寻找", "find"},
	{"find", "find"},
	{"search", "find"},
	{"locate", "find"},
	{"列出", "list"},
	{"显示", "list"},
	{"list", "list"},
	{"ls", "list"},
	{"统计", "count"},
	{"计数", "count"},
	{"多少", "count"},
	{"count", "count"},
	{"删除", "delete"},
	{"delete", "delete"},
	{"remove", "delete"},
	{"复制", "copy"},
	{"拷贝", "copy"},
	{"copy", "copy"},
	{"移动", "move"},
	{"move", "move"},
	{"查看", "show"},
	{"show", "show"},
	{"display", "show"},
	{"cat", "show"},
	{"压缩", "compress"},
	{"compress", "compress"},
	{"zip", "compress"},
	{"tar", "compress"},
	{"排序", "sort"},
	{"sort", "sort"},
}

// sortDirectionWords holds both directions; the earliest phrase wins.
var sortDirectionWords = keywordTable{
	{"最大", SortDescending},
	{"最多", SortDescending},
	{"最新", SortDescending},
	{"降序", SortDescending},
	{"从大到小", SortDescending},
	{"largest", SortDescending},
	{"biggest", SortDescending},
	{"newest", SortDescending},
	{"top", SortDescending},
	{"descending", SortDescending},
	{"desc", SortDescending},
	{"最小", SortAscending},
	{"最少", SortAscending},
	{"最旧", SortAscending},
	{"最早", SortAscending},
	{"升序", SortAscending},
	{"从小到大", SortAscending},
	{"smallest", SortAscending},
	{"bottom", SortAscending},
	{"oldest", SortAscending},
	{"ascending", SortAscending},
	{"asc", SortAscending},
}

// pathStopwords are bare identifiers that must never be read as a path:
// command verbs, file-type vocabulary, and common filler words.
var pathStopwords = buildStopwords(
	[]string{
		"find", "search", "locate", "list", "ls", "show", "display", "count",
		"delete", "remove", "copy", "move", "sort", "compress", "zip", "tar",
		"cat", "get", "check", "print", "view", "du", "df", "top", "ps", "grep",
	},
	[]string{
		"file", "files", "dir", "dirs", "directory", "directories", "folder",
		"folders", "the", "a", "an", "in", "on", "of", "all", "my", "me", "and",
		"for", "with", "by", "to", "from", "under", "inside", "largest", "biggest",
		"smallest", "bottom", "newest", "oldest", "recent", "recently", "most",
		"least", "big", "large", "small", "size", "sizes", "disk", "usage",
		"space", "lines", "line", "how", "many", "what", "which", "is", "are",
		"current", "this", "here", "today", "yesterday", "first", "last",
		"modified", "changed", "memory", "process", "processes", "system",
		"info", "containing", "contains", "text", "word", "please", "ascending",
		"descending", "asc", "desc", "order", "used", "using", "than", "over",
		"above", "below", "larger", "smaller", "bigger", "greater", "less",
		"newer", "older", "code", "source", "sources", "configs", "results",
		"result", "items", "item", "entries", "entry", "matches", "only",
		"just", "up", "at", "some", "any", "them",
	},
)

func buildStopwords(groups ...[]string) map[string]bool {
	out := make(map[string]bool)
	for _, g := range groups {
		for _, w := range g {
			out[w] = true
		}
	}
	for w := range fileTypeAliases {
		out[w] = true
	}
	return out
}

// Extractor pulls typed entities out of free-form text.
type Extractor struct {
	stopwords map[string]bool
}

// NewExtractor creates an extractor with the built-in vocabularies.
func NewExtractor() *Extractor {
	return &Extractor{stopwords: pathStopwords}
}

// Extract returns the entities it could find for each expected name. An
// entity that cannot be found is absent from the result; callers fall
// back to the declared defaults.
func (x *Extractor) Extract(text string, expected map[string]Entity) map[string]Entity {
	out := make(map[string]Entity, len(expected))
	for name, def := range expected {
		if e, ok := x.extractOne(text, def); ok {
			out[name] = e
		}
	}
	return out
}

func (x *Extractor) extractOne(text string, def Entity) (Entity, bool) {
	switch d := def.(type) {
	case FileTypeEntity:
		if v, ok := ExtractFileType(text); ok {
			return FileTypeEntity(v), true
		}
	case PathEntity:
		if v, ok := x.ExtractPath(text); ok {
			return PathEntity(v), true
		}
	case NumberEntity:
		if v, ok := ExtractNumber(text); ok {
			return NumberEntity(v), true
		}
	case DateEntity:
		if v, ok := ExtractDate(text); ok {
			return DateEntity(v), true
		}
	case OperationEntity:
		if v, ok := operationTable.first(text); ok {
			return OperationEntity(v), true
		}
	case CustomEntity:
		if d.Name == SortKind {
			return CustomEntity{Name: SortKind, Val: ExtractSortDirection(text)}, true
		}
	}
	return nil, false
}

// ExtractFileType returns the normalized extension of the first file-type
// word in text.
func ExtractFileType(text string) (string, bool) {
	if m := fileTypePattern.FindStringSubmatch(text); m != nil {
		word := m[1]
		if word == "" {
			word = m[2]
		}
		if v, ok := fileTypeAliases[strings.ToLower(word)]; ok {
			return v, true
		}
	}
	return cjkFileTypes.first(text)
}

// ExtractPath returns the first path-like token in text. Phrases meaning
// the working directory resolve to ".".
func (x *Extractor) ExtractPath(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{absPathPattern, homePathPattern, relPathPattern} {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	if v, ok := currentDirTable.first(text); ok {
		return v, true
	}
	for _, loc := range identPattern.FindAllStringIndex(text, -1) {
		if !isIdentBoundary(text, loc[0], loc[1]) {
			continue
		}
		tok := text[loc[0]:loc[1]]
		word := strings.ToLower(strings.TrimSuffix(tok, "/"))
		if word == "" || x.stopwords[word] || !isPathStart(word[0]) {
			continue
		}
		return tok, true
	}
	return "", false
}

// isIdentBoundary rejects identifiers glued to '.', which belong to file
// names or globs ("*.py") rather than directories.
func isIdentBoundary(text string, start, end int) bool {
	if start > 0 && (text[start-1] == '.' || text[start-1] == '*') {
		return false
	}
	if end < len(text) && text[end] == '.' {
		return false
	}
	return true
}

// isPathStart rejects flags ("-la") and numeric tokens ("10", "100MB").
func isPathStart(c byte) bool {
	return c != '-' && (c < '0' || c > '9')
}

// ExtractNumber returns the first integer or decimal literal in text.
func ExtractNumber(text string) (float64, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ExtractDate prefers relative terms over an ISO YYYY-MM-DD literal.
func ExtractDate(text string) (string, bool) {
	if v, ok := dateTable.first(text); ok {
		return v, true
	}
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// ExtractSortDirection returns the direction of the earliest direction
// keyword outside any path, or SortDescending when there is none.
func ExtractSortDirection(text string) string {
	if v, ok := sortDirectionWords.first(maskPaths(text)); ok {
		return v
	}
	return SortDescending
}

// maskPaths blanks explicit paths so directory names like "/data/bottom"
// are not read as keywords.
func maskPaths(text string) string {
	for _, re := range []*regexp.Regexp{absPathPattern, homePathPattern, relPathPattern} {
		text = re.ReplaceAllString(text, " ")
	}
	return text
}
