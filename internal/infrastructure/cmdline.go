package infrastructure

import "strings"

// shellSpecial lists the bytes that make a word need quoting in sh
const shellSpecial = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// QuoteArg quotes s for display in a POSIX shell command line.
// Only used for logging; exec never goes through a shell.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	// Close the quote, emit a double-quoted ', reopen.
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// CommandLine renders binary and args as a copy-pasteable command
func CommandLine(binary string, args ...string) string {
	var b strings.Builder
	b.WriteString(QuoteArg(binary))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(QuoteArg(arg))
	}
	return b.String()
}
