package tle

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// ValidIdentifier reports whether id is a non-empty string of ASCII digits.
func ValidIdentifier(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// Rejection describes a catalog entry that Parse skipped.
type Rejection struct {
	Line   int // 1-based line number where the entry started
	Name   string
	Reason string
}

// Parse reads NORAD catalog text in either 3-line (name + elements) or bare
// 2-line form. Entries whose element lines do not start with "1 " and "2 "
// are skipped and reported; the scan resynchronises on the next line.
// Only structural problems are rejected here; column validation happens
// when constants are derived.
func Parse(r io.Reader, class model.Classification) ([]model.ElementSet, []Rejection, error) {
	scanner := bufio.NewScanner(r)
	type numbered struct {
		no   int
		text string
	}
	var lines []numbered
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r\n\t ")
		if line != "" {
			lines = append(lines, numbered{no: n, text: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var (
		sets     []model.ElementSet
		rejected []Rejection
	)
	for i := 0; i < len(lines); {
		cur := lines[i]
		if isDataLine(cur.text, '1') && i+1 < len(lines) && isDataLine(lines[i+1].text, '2') {
			sets = append(sets, newSet("", cur.text, lines[i+1].text, class))
			i += 2
			continue
		}
		if i+2 < len(lines) && isDataLine(lines[i+1].text, '1') && isDataLine(lines[i+2].text, '2') {
			sets = append(sets, newSet(strings.TrimSpace(cur.text), lines[i+1].text, lines[i+2].text, class))
			i += 3
			continue
		}
		rejected = append(rejected, Rejection{Line: cur.no, Name: strings.TrimSpace(cur.text), Reason: "no element lines follow"})
		i++
	}
	return sets, rejected, nil
}

func newSet(name, line1, line2 string, class model.Classification) model.ElementSet {
	id := ""
	if len(line1) >= 7 {
		id = strings.TrimSpace(line1[2:7])
	}
	if name == "" {
		name = id
	}
	return model.ElementSet{
		Name:  strings.TrimPrefix(name, "0 "),
		ID:    id,
		Line1: line1,
		Line2: line2,
		Class: class,
	}
}

func isDataLine(line string, number byte) bool {
	return len(line) >= 2 && line[0] == number && line[1] == ' '
}
