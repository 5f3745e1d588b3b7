package subject

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	organVolumesHeader = "ORGAN VOLUMES:"
	sectionSeparator   = "----------------------------------------"
)

// ParseLog reads the organ volume table of an XCAT phantom log. Lines
// between the "ORGAN VOLUMES:" header and the next dashed separator have
// the form "name = value unit"; milliliter values are converted to liters.
func ParseLog(r io.Reader, sex Sex, tumor float64, name string) (*Phantom, error) {
	p := &Phantom{Name: name, Gender: sex, Tumor: tumor, OrganVolumes: make(map[string]float64)}

	scanner := bufio.NewScanner(r)
	recording := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.Contains(line, organVolumesHeader) {
			recording = true
			continue
		}
		if !recording {
			continue
		}
		if strings.Contains(line, sectionSeparator) {
			recording = false
			continue
		}

		compact := strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if compact == "" {
			continue
		}
		parts := strings.Split(compact, "=")
		if len(parts) < 2 {
			return nil, fmt.Errorf("xcat log line %d: expected name = value, got %q", lineNo, line)
		}

		v, err := parseVolume(parts[len(parts)-1])
		if err != nil {
			return nil, fmt.Errorf("xcat log line %d: %w", lineNo, err)
		}
		p.OrganVolumes[parts[0]] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.OrganVolumes) == 0 {
		return nil, fmt.Errorf("xcat log: no %q section found", organVolumesHeader)
	}
	return p, nil
}

// ReadLogFile parses an XCAT log from disk, or stdin when path is "-".
func ReadLogFile(path string, sex Sex, tumor float64, name string) (*Phantom, error) {
	if path == "-" {
		return ParseLog(os.Stdin, sex, tumor, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLog(f, sex, tumor, name)
}

func parseVolume(field string) (float64, error) {
	end := len(field)
	for end > 0 && isUnitChar(field[end-1]) {
		end--
	}
	num, unit := field[:end], strings.ToLower(field[end:])

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q", field)
	}

	switch unit {
	case "ml", "cc":
		return v / 1000, nil
	case "", "l":
		return v, nil
	}
	return 0, fmt.Errorf("unknown volume unit %q", unit)
}

func isUnitChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
