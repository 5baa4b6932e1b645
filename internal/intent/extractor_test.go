// ABOUTME: Tests for typed entity extraction over mixed Chinese/English input
// ABOUTME: Covers file types, path precedence and exclusions, numbers, dates, verbs, and sort direction

package intent

import (
	"reflect"
	"testing"
)

func TestExtractFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"find all python files", "py", true},
		{"查找所有Rust文件", "rs", true},
		{"count *.go files", "go", true},
		{"list JavaScript sources", "js", true},
		{"show c++ headers", "cpp", true},
		{"find c files", "c", true},
		{"查找c文件", "c", true},
		{"compile c++ and c sources", "cpp", true},
		{"统计日志文件", "log", true},
		{"find yml configs", "yaml", true},
		{"find big files", "", false},
		{"good morning", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractFileType(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractFileType(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractPath(t *testing.T) {
	t.Parallel()

	x := NewExtractor()
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"find large files in /var/log", "/var/log", true},
		{"查找/var/log下的大文件", "/var/log", true},
		{"list ./src/", "./src/", true},
		{"disk usage of ../build", "../build", true},
		{"show ~/projects", "~/projects", true},
		{"find files in the current directory", ".", true},
		{"查找当前目录的大文件", ".", true},
		{"find python files in src", "src", true},
		{"统计src目录下的代码", "src", true},
		{"list files", "", false},
		{"find the largest 10 files", "", false},
		{"ls -la", "", false},
		{"find *.py files", "", false},
		{"查找大文件", "", false},
		{"find files larger than 100MB", "", false},
		{"find large files, show 20 results", "", false},
		{"list only the top 5 items", "", false},
		{"show the newest entries in logs", "logs", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := x.ExtractPath(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractPath(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"top 10 files", 10, true},
		{"显示前5个进程", 5, true},
		{"files over 1.5 GB", 1.5, true},
		{"no digits here", 0, false},
	}

	for _, tt := range tests {
		got, ok := ExtractNumber(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractNumber(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"files modified today", "today", true},
		{"昨天修改的文件", "yesterday", true},
		{"recently changed files", "recent", true},
		{"最近的日志", "recent", true},
		{"files since 2024-03-01", "2024-03-01", true},
		{"today and 2024-03-01", "today", true},
		{"files changed this week", "this_week", true},
		{"nothing", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractDate(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractDate(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractSortDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"查找最大的文件", SortDescending},
		{"show the largest files", SortDescending},
		{"top 5 files", SortDescending},
		{"查找最小的文件", SortAscending},
		{"smallest files", SortAscending},
		{"bottom 3 by size", SortAscending},
		{"list files by size", SortDescending},
		{"show the 5 largest files at least 1MB", SortDescending},
		{"最大的文件 不要最小的", SortDescending},
		{"smallest files, not the largest", SortAscending},
		{"find large files in /data/bottom", SortDescending},
		{"oldest logs under ~/top/archive", SortAscending},
		{"sort by size desc", SortDescending},
		{"sort by size asc", SortAscending},
	}

	for _, tt := range tests {
		if got := ExtractSortDirection(tt.input); got != tt.want {
			t.Errorf("ExtractSortDirection(%q) = %q; want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtract_DispatchesOnVariant(t *testing.T) {
	t.Parallel()

	x := NewExtractor()
	expected := map[string]Entity{
		"path":       PathEntity("."),
		"ext":        FileTypeEntity("txt"),
		"limit":      NumberEntity(10),
		"since":      DateEntity("today"),
		"action":     OperationEntity("list"),
		"sort_order": CustomEntity{Name: SortKind, Val: SortDescending},
		"owner":      CustomEntity{Name: "user", Val: "root"},
	}

	got := x.Extract("find the 5 smallest python files in src modified yesterday", expected)
	want := map[string]Entity{
		"path":       PathEntity("src"),
		"ext":        FileTypeEntity("py"),
		"limit":      NumberEntity(5),
		"since":      DateEntity("yesterday"),
		"action":     OperationEntity("find"),
		"sort_order": CustomEntity{Name: SortKind, Val: SortAscending},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() =\n%v\nwant\n%v", got, want)
	}
}

func TestExtract_UnderPopulatesWithoutError(t *testing.T) {
	t.Parallel()

	got := NewExtractor().Extract("你好", map[string]Entity{
		"path": PathEntity("."),
		"ext":  FileTypeEntity("txt"),
	})
	if len(got) != 0 {
		t.Errorf("Extract() = %v; want empty", got)
	}
}

func TestOperationTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"查找大文件", "find"},
		{"list files", "list"},
		{"count files then list them", "count"},
		{"统计代码行数", "count"},
		{"show disk usage", "show"},
	}
	for _, tt := range tests {
		got, ok := operationTable.first(tt.input)
		if !ok || got != tt.want {
			t.Errorf("operationTable.first(%q) = %q, %v; want %q", tt.input, got, ok, tt.want)
		}
	}
	if got, ok := operationTable.first("files"); ok {
		t.Errorf(`"ls" must not match inside "files"; got %q`, got)
	}
}
