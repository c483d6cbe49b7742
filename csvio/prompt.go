// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package csvio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcodagnone/geoconv/spatial"
)

// PromptCoordinates reads "lat,lon" lines from in until "done" or EOF.
// It returns ok=false when the user types "exit". Invalid lines are
// reported on out and ignored. A *bufio.Reader is used as is, so callers
// can keep reading answers from it afterwards.
func PromptCoordinates(in io.Reader, out io.Writer) (points []spatial.Point, ok bool, err error) {
	fmt.Fprintln(out, "\nEnter coordinates (latitude,longitude), one per line.")
	fmt.Fprintln(out, "Type 'done' when finished, 'exit' to cancel")

	reader, isBuffered := in.(*bufio.Reader)
	if !isBuffered {
		reader = bufio.NewReader(in)
	}

	for {
		fmt.Fprint(out, "▶ ")

		line, rerr := reader.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return points, true, rerr
		}

		entry := strings.TrimSpace(line)

		switch strings.ToLower(entry) {
		case "":
			if rerr != nil {
				return points, true, nil
			}

			continue
		case "done":
			return points, true, nil
		case "exit":
			fmt.Fprintln(out, "Canceling input...")

			return nil, false, nil
		}

		p, perr := parseEntry(entry)
		if perr != nil {
			fmt.Fprintf(out, "❌ Invalid input: %v\n", perr)
			fmt.Fprintln(out, "Correct format: 12.3456,98.7654")

			if rerr != nil {
				return points, true, nil
			}

			continue
		}

		points = append(points, p)
		fmt.Fprintf(out, "✅ Added: %s\n", p)

		if rerr != nil {
			return points, true, nil
		}
	}
}

func parseEntry(entry string) (spatial.Point, error) {
	parts := strings.Split(entry, ",")
	if len(parts) != 2 {
		return spatial.Point{}, fmt.Errorf("expected 2 values, got %d", len(parts))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("longitude: %w", err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}

	return p, p.Validate()
}
