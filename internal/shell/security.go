// ABOUTME: Command validation for generated plans: denylist, allowlist, and dangerous constructs
// ABOUTME: Every refusal wraps ErrCommandBlocked; pipelines are checked segment by segment

package shell

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxCommandLength bounds the accepted command size in bytes.
const MaxCommandLength = 10_000

// ErrCommandBlocked is wrapped by every validation failure.
var ErrCommandBlocked = errors.New("command blocked")

// blockedCommands may never run, in any pipeline segment.
var blockedCommands = map[string]bool{
	"rm": true, "rmdir": true, "shred": true, "mkfs": true, "fdisk": true,
	"format": true, "shutdown": true, "reboot": true, "halt": true,
	"poweroff": true, "su": true, "sudo": true, "doas": true, "passwd": true,
	"chsh": true, "chfn": true, "usermod": true, "useradd": true,
	"userdel": true, "groupadd": true, "groupdel": true, "chmod": true,
	"chown": true, "mount": true, "umount": true, "crontab": true, "at": true,
	"batch": true, "nc": true, "netcat": true, "ncat": true, "socat": true,
	"telnet": true, "ssh": true, "scp": true, "rsync": true, "curl": true,
	"wget": true, "xargs": true, "eval": true, "exec": true, "source": true,
	".": true, "kill": true, "killall": true, "pkill": true, "dd": true,
}

// allowedCommands are the programs generated plans are expected to use.
var allowedCommands = map[string]bool{
	"echo": true, "printf": true, "cat": true, "head": true, "tail": true,
	"grep": true, "egrep": true, "fgrep": true, "rg": true, "sed": true,
	"awk": true, "cut": true, "sort": true, "uniq": true, "wc": true,
	"tr": true, "basename": true, "dirname": true, "pwd": true,
	"whoami": true, "id": true, "date": true, "uptime": true, "uname": true,
	"which": true, "file": true, "stat": true, "ls": true, "find": true,
	"locate": true, "tree": true, "df": true, "du": true, "ps": true,
	"top": true, "free": true, "vmstat": true, "iostat": true, "lsof": true,
	"tar": true, "gzip": true, "gunzip": true, "zip": true, "unzip": true,
	"md5sum": true, "sha256sum": true, "true": true, "false": true,
	"test": true, "sleep": true, "jq": true, "git": true, "hostname": true,
	"lscpu": true, "lsblk": true, "ip": true, "ss": true, "netstat": true,
}

// dangerousPatterns are constructs refused anywhere in a command. Pipes,
// && and || stay legal; their segments are checked against the lists.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\(`),                     // command substitution $(...)
	regexp.MustCompile("`[^`]*`"),                  // command substitution `...`
	regexp.MustCompile(`\$\{[^}]*\}`),              // parameter expansion
	regexp.MustCompile(`;\s*\w+`),                  // chaining with semicolon
	regexp.MustCompile(`/etc/(passwd|shadow|sudoers)`),
	regexp.MustCompile(`>\s*/dev/(sd|hd|nvme|disk)`), // raw device writes
	regexp.MustCompile(`exec\s+\d*[<>]`),           // fd redirection via exec
	regexp.MustCompile(`:\s*\(\s*\)\s*\{`),         // fork bomb
	regexp.MustCompile(`-exec\s+rm\b`),
	regexp.MustCompile(`(^|\s)-delete\b`),
}

var pipelineSplitter = regexp.MustCompile(`\s*(?:\|{1,2}|&&)\s*`)

// Validate reports why command may not run, or nil.
func Validate(command string) error {
	if command == "" {
		return fmt.Errorf("%w: empty command", ErrCommandBlocked)
	}
	if len(command) > MaxCommandLength {
		return fmt.Errorf("%w: command too long (max %d characters)", ErrCommandBlocked, MaxCommandLength)
	}
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(command) {
			return fmt.Errorf("%w: dangerous pattern %s", ErrCommandBlocked, pattern.String())
		}
	}

	for i, seg := range pipelineSplitter.Split(command, -1) {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			if i == 0 {
				return fmt.Errorf("%w: no command found", ErrCommandBlocked)
			}
			continue
		}
		name := strings.ToLower(parts[0])
		if blockedCommands[name] {
			return fmt.Errorf("%w: %s is not allowed", ErrCommandBlocked, name)
		}
		if !allowedCommands[name] {
			return fmt.Errorf("%w: %s is not in the allow list", ErrCommandBlocked, name)
		}
		if err := validateArgs(name, seg); err != nil {
			return fmt.Errorf("%w: %v", ErrCommandBlocked, err)
		}
	}
	return nil
}

// validateArgs refuses write modes of otherwise read-only tools.
func validateArgs(name, segment string) error {
	switch name {
	case "sed":
		if inPlaceFlag.MatchString(segment) {
			return errors.New("sed in-place editing (-i) is not allowed")
		}
	case "awk":
		if strings.Contains(segment, "system(") || strings.Contains(segment, "print >") {
			return errors.New("awk system() and file writes are not allowed")
		}
	case "git":
		if fields := strings.Fields(segment); len(fields) > 1 && !readOnlyGit[fields[1]] {
			return fmt.Errorf("git %s is not allowed", fields[1])
		}
	}
	return nil
}

var inPlaceFlag = regexp.MustCompile(`(^|\s)-i\b|--in-place`)

var readOnlyGit = map[string]bool{
	"status": true, "log": true, "diff": true, "show": true, "branch": true,
	"ls-files": true, "blame": true, "rev-parse": true, "describe": true,
}

// Sanitize strips NUL and control characters other than newline and tab,
// then trims surrounding whitespace.
func Sanitize(command string) string {
	var b strings.Builder
	b.Grow(len(command))
	for _, r := range command {
		if r >= 32 || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
