// ABOUTME: Typed file operations (find, disk usage, sort, limit) rendered to shell fragments
// ABOUTME: A Pipeline joins rendered operations with " | "

package pipeline

import (
	"strconv"
	"strings"
)

// Field is the column a SortFiles operation orders by.
type Field int

const (
	FieldSize Field = iota
	FieldTime
)

func (f Field) String() string {
	if f == FieldTime {
		return "time"
	}
	return "size"
}

// Direction is the sort order.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// Operation is one stage of a pipeline. The set is closed: FindFiles,
// DiskUsage, SortFiles and LimitFiles.
type Operation interface {
	Render() string
	operation()
}

// FindFiles lists regular files as "size<TAB>mtime<TAB>path" lines.
type FindFiles struct {
	Path    string
	Pattern string
}

// DiskUsage lists the entries under Path as "size<TAB>path" lines.
type DiskUsage struct {
	Path string
}

// SortFiles orders lines by size (column 1) or modification time (column 2).
type SortFiles struct {
	Field     Field
	Direction Direction
}

// LimitFiles keeps the first Count lines.
type LimitFiles struct {
	Count int
}

func (FindFiles) operation()  {}
func (DiskUsage) operation()  {}
func (SortFiles) operation()  {}
func (LimitFiles) operation() {}

func (o FindFiles) Render() string {
	return "find " + shellQuote(o.Path) + " -type f -name '" + o.Pattern + `' -printf '%s\t%T@\t%p\n'`
}

func (o DiskUsage) Render() string {
	dir := strings.TrimSuffix(o.Path, "/")
	if dir == "" && o.Path != "" {
		return "du -sh /* 2>/dev/null"
	}
	return "du -sh " + shellQuote(dir) + "/* 2>/dev/null"
}

// Render emits the direction as the sort flag: sizes use human-numeric
// ordering ("-hr" / "-h"), times numeric ordering ("-nr" / "-n").
func (o SortFiles) Render() string {
	flag, key := "-h", "-k1,1"
	if o.Field == FieldTime {
		flag, key = "-n", "-k2,2"
	}
	if o.Direction == Descending {
		flag += "r"
	}
	return "sort " + flag + ` -t$'\t' ` + key
}

func (o LimitFiles) Render() string {
	return "head -n " + strconv.Itoa(o.Count)
}

// Pipeline is an ordered sequence of operations.
type Pipeline []Operation

// Render joins the rendered operations with pipes.
func (p Pipeline) Render() string {
	parts := make([]string, len(p))
	for i, op := range p {
		parts[i] = op.Render()
	}
	return strings.Join(parts, " | ")
}

// shellQuote single-quotes s unless it only holds path-safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || strings.IndexByte("/._-~+,:@", c) >= 0) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
