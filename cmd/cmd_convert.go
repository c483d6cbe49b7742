// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/jcodagnone/geoconv/convert"
	"github.com/jcodagnone/geoconv/csvio"
	"github.com/jcodagnone/geoconv/geocoding"
	"github.com/jcodagnone/geoconv/mapview"
	"github.com/jcodagnone/geoconv/recordstore"
	"github.com/jcodagnone/geoconv/utils/httputils"
	"github.com/jcodagnone/geoconv/utils/textutils"
	"github.com/spf13/cobra"
)

const projectURL = "https://github.com/jcodagnone/geoconv"

// ConvertOptions configures a conversion run.
type ConvertOptions struct {
	// Input is the coordinates CSV
	Input string

	// Output is the converted CSV
	Output string

	// MapPath is the generated HTML map
	MapPath string

	// XLSXPath also writes the export as a workbook when set
	XLSXPath string

	// RecordsDbPath also stores the records in a DuckDB database when set
	RecordsDbPath string

	// Geocode enables address lookup
	Geocode bool

	// Provider is the reverse geocoding service, nominatim or google
	Provider string

	// NominatimURL overrides the Nominatim instance
	NominatimURL string

	// UserAgent overrides the identifier sent to the geocoding service
	UserAgent string

	// Contact is appended to the default User-Agent
	Contact string

	// Language sent to the geocoding service
	Language string

	// Timeout for each geocoding request
	Timeout time.Duration

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// Interactive asks for new coordinates before converting
	Interactive bool

	// AskGeocode asks whether to enable address lookup
	AskGeocode bool

	// OpenMap opens the generated map in the default browser
	OpenMap bool
}

var convertOpts = &ConvertOptions{}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the coordinates file into projected coordinates, addresses and a map",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConvert(cmd.Context(), convertOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func askYesNo(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/n): ", question)

	answer, _ := in.ReadString('\n')

	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func newGeocoder(ctx context.Context, opts *ConvertOptions) (geocoding.ReverseGeocoder, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		contact := opts.Contact
		if contact == "" {
			contact = projectURL
		}

		userAgent = httputils.UserAgent("geoconv", Version, contact)
	}

	var trace io.Writer
	if opts.EnableHTTPTrace || opts.EnableHTTPBodyTrace {
		trace = os.Stderr
	}

	switch opts.Provider {
	case "", "nominatim":
		return geocoding.NewNominatimGeocoder(&geocoding.NominatimOptions{
			BaseURL:     opts.NominatimURL,
			UserAgent:   userAgent,
			Language:    opts.Language,
			Timeout:     opts.Timeout,
			TraceWriter: trace,
			TraceBody:   opts.EnableHTTPBodyTrace,
		}), nil
	case "google":
		apiKey, err := geocoding.GoogleAPIKey(ctx)
		if err != nil {
			return nil, err
		}

		return geocoding.NewGoogleMapsGeocoder(apiKey, &geocoding.GoogleOptions{
			UserAgent:   userAgent,
			Language:    opts.Language,
			Timeout:     opts.Timeout,
			TraceWriter: trace,
			TraceBody:   opts.EnableHTTPBodyTrace,
		}), nil
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", opts.Provider)
	}
}

func runConvert(ctx context.Context, opts *ConvertOptions, stdin io.Reader, stdout io.Writer) error {
	in := bufio.NewReader(stdin)

	fmt.Fprintln(stdout, "\nInteractive Geospatial Converter")
	fmt.Fprintln(stdout, "===============================")

	if opts.Interactive && askYesNo(in, stdout, "Would you like to add new coordinates?") {
		if err := addCoordinates(in, stdout, opts.Input); err != nil {
			return err
		}
	}

	cache, closeCache, err := openCache()
	if err != nil {
		return err
	}
	defer closeCache()

	rows, err := csvio.ReadCoordinatesFile(opts.Input)
	if err != nil {
		return err
	}

	geocode := opts.Geocode
	if opts.AskGeocode && !geocode {
		geocode = askYesNo(in, stdout, "Enable address lookup?")
	}

	converter := convert.NewConverter(nil)

	ctx, stop := interruptible(ctx)
	defer stop()

	if geocode {
		geocoder, err := newGeocoder(ctx, opts)
		if err != nil {
			return fmt.Errorf("creating geocoder: %w", err)
		}

		pipeline := geocoding.NewPipeline(geocoder, cache)
		pipeline.Resolve(ctx, convert.Points(rows))

		m := pipeline.Metrics
		log.Printf("Address lookup - %s unique coordinates, %s cached, %s resolved, %s failed",
			textutils.FormatInt(int64(m.Unique)),
			textutils.FormatInt(int64(m.Cached)),
			textutils.FormatInt(int64(m.Resolved)),
			textutils.FormatInt(int64(m.Failed)))

		converter = convert.NewConverter(cache)
	}

	records, err := converter.Convert(rows)
	if err != nil {
		return fmt.Errorf("converting %s: %w", opts.Input, err)
	}

	return writeOutputs(opts, records, stdout)
}

func addCoordinates(in io.Reader, out io.Writer, path string) error {
	points, ok, err := csvio.PromptCoordinates(in, out)
	if err != nil {
		return fmt.Errorf("reading coordinates: %w", err)
	}

	if !ok || len(points) == 0 {
		fmt.Fprintln(out, "No new coordinates added")

		return nil
	}

	if err := csvio.AppendCoordinates(path, points); err != nil {
		return fmt.Errorf("failed to save coordinates: %w", err)
	}

	fmt.Fprintf(out, "✅ Added %d coordinates to %s\n", len(points), path)

	return nil
}

func writeOutputs(opts *ConvertOptions, records []*convert.Record, stdout io.Writer) error {
	if err := csvio.WriteRecordsFile(opts.Output, records); err != nil {
		return err
	}

	outputs := []string{"Converted coordinates: " + opts.Output}

	if opts.XLSXPath != "" {
		if err := csvio.WriteXLSXFile(opts.XLSXPath, records); err != nil {
			return err
		}

		outputs = append(outputs, "Workbook: "+opts.XLSXPath)
	}

	if opts.RecordsDbPath != "" {
		run, err := saveRecords(opts.RecordsDbPath, records)
		if err != nil {
			return err
		}

		outputs = append(outputs, fmt.Sprintf("Database: %s (run %d)", opts.RecordsDbPath, run.ID))
	}

	fmt.Fprintln(stdout, "\n🗺️  Creating interactive map...")

	if err := mapview.NewRenderer().RenderFile(opts.MapPath, records); err != nil {
		return err
	}

	outputs = append(outputs, "Interactive map: "+opts.MapPath)

	if opts.OpenMap {
		if err := openInBrowser(opts.MapPath); err != nil {
			log.Printf("⚠️  Opening %s: %v", opts.MapPath, err)
		}
	}

	fmt.Fprintf(stdout, "\n✅ Converted %s coordinates. Output files created:\n",
		textutils.FormatInt(int64(len(records))))

	for _, o := range outputs {
		fmt.Fprintf(stdout, "- %s\n", o)
	}

	return nil
}

func browserCommand(goos, path string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return exec.Command("xdg-open", path)
	}
}

var openInBrowser = func(path string) error {
	return browserCommand(runtime.GOOS, path).Start()
}

func saveRecords(dbPath string, records []*convert.Record) (*recordstore.Run, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	repo := recordstore.NewRecordRepository(db)
	if err := repo.CreateSchema(); err != nil {
		return nil, fmt.Errorf("creating records schema: %w", err)
	}

	run, err := repo.SaveRun(records)
	if err != nil {
		return nil, fmt.Errorf("saving records: %w", err)
	}

	return run, nil
}

func addConvertFlags(cmd *cobra.Command, opts *ConvertOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.Input, "input", "i", csvio.DefaultInputFile, "Coordinates CSV with latitude and longitude columns")
	flags.StringVarP(&opts.Output, "output", "o", csvio.DefaultOutputFile, "Converted CSV file")
	flags.StringVar(&opts.MapPath, "map", mapview.DefaultFile, "Interactive HTML map file")
	flags.StringVar(&opts.XLSXPath, "xlsx", "", "Also write the converted records to this Excel workbook")
	flags.StringVar(&opts.RecordsDbPath, "records-db", "", "Also store the converted records in this DuckDB database")
	flags.StringVar(&opts.Provider, "provider", "nominatim", "Reverse geocoding service: nominatim or google")
	flags.StringVar(&opts.NominatimURL, "nominatim-url", geocoding.DefaultNominatimURL, "Nominatim instance")
	flags.StringVar(&opts.UserAgent, "user-agent", "", "User-Agent sent to the geocoding service")
	flags.StringVar(&opts.Contact, "contact", "", "Contact (email or URL) included in the default User-Agent")
	flags.StringVar(&opts.Language, "language", "", "Preferred address language, e.g. en or es")
	flags.DurationVar(&opts.Timeout, "timeout", 15*time.Second, "Timeout for each geocoding request")
	flags.BoolVar(&opts.EnableHTTPTrace, "trace-http", false, "Display HTTP requests-responses")
	flags.BoolVar(&opts.EnableHTTPBodyTrace, "trace-http-body", false, "Display HTTP requests-responses bodies")
	flags.BoolVar(&opts.OpenMap, "open", false, "Open the generated map in the default browser")
}

func init() {
	rootCmd.AddCommand(convertCmd)
	addConvertFlags(convertCmd, convertOpts)
	addConvertFlags(rootCmd, convertOpts)
	convertCmd.Flags().BoolVarP(&convertOpts.Geocode, "geocode", "g", false, "Resolve addresses through the geocoding service")
	convertCmd.Flags().BoolVar(&convertOpts.Interactive, "interactive", false, "Enter new coordinates before converting")
}
