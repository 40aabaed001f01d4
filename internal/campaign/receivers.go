package campaign

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseReceiversFile reads recipient addresses from a file with one entry
// per line in "Full Name <email@domain.com>" format.
func ParseReceiversFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open receivers file: %w", err)
	}
	defer f.Close()

	receivers, err := ParseReceivers(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read receivers file: %w", err)
	}
	return receivers, nil
}

// ParseReceivers extracts one address per line: the substring between the
// first '<' and the first '>' that follows it. Lines missing either bracket
// are silently ignored.
func ParseReceivers(r io.Reader) ([]string, error) {
	var receivers []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "<") || !strings.Contains(line, ">") {
			continue
		}
		rest := line[strings.Index(line, "<")+1:]
		email := rest
		if end := strings.Index(rest, ">"); end >= 0 {
			email = rest[:end]
		}
		receivers = append(receivers, strings.TrimSpace(email))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return receivers, nil
}
