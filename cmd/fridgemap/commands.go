package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fridgemap/internal/client"
	"fridgemap/internal/config"
	"fridgemap/internal/mapview"
	"fridgemap/internal/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	envFile string
	verbose bool
	here    string
	width   int
	height  int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "fridgemap",
		Short:        "Find community fridges on a map",
		Long:         `Browse the community fridge directory: recenter the map on an address, list visible fridges and edit fridge records.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.verbose {
				log.Logger = log.Logger.Level(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load settings from this file instead of .env")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.here, "here", "", "Current position as lon,lat (geolocation)")
	rootCmd.PersistentFlags().IntVar(&opts.width, "width", 1024, "Map width in pixels")
	rootCmd.PersistentFlags().IntVar(&opts.height, "height", 768, "Map height in pixels")

	rootCmd.AddCommand(
		newMapCmd(opts),
		newSearchCmd(opts),
		newGotoCmd(opts),
		newFridgesCmd(opts),
	)
	return rootCmd
}

// app wires the map client from configuration.
type app struct {
	cfg    config.ClientConfig
	api    *client.Client
	view   *mapview.MapView
	width  int
	height int
}

func newApp(opts *options) (*app, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.LoadClientConfig(envFiles...)
	if err != nil {
		return nil, err
	}

	api, err := client.New(cfg.FridgeAPIURL, nil)
	if err != nil {
		return nil, err
	}

	var locator mapview.Locator = mapview.DeniedLocator{}
	if opts.here != "" {
		pos, err := parseCoordinates(opts.here)
		if err != nil {
			return nil, err
		}
		locator = mapview.StaticLocator{Position: pos}
	}

	initial := mapview.Viewport{
		Center: models.Coordinates{Lon: cfg.MapLongitude, Lat: cfg.MapLatitude},
		Zoom:   cfg.MapZoom,
	}
	return &app{
		cfg:    cfg,
		api:    api,
		view:   mapview.New(api, &lazyGeocoder{cfg: cfg}, locator, initial, log.Logger),
		width:  opts.width,
		height: opts.height,
	}, nil
}

// mapState is what the map shows after a command.
type mapState struct {
	Viewport mapview.Viewport `json:"viewport"`
	Markers  []mapview.Marker `json:"markers"`
}

func (a *app) state() mapState {
	return mapState{Viewport: a.view.Viewport(), Markers: a.view.VisibleMarkers(a.width, a.height)}
}

func newMapCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Show the initial viewport and the fridges inside it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.view.Mount(cmd.Context()); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.state())
		},
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var selectIdx int

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "List place suggestions for an address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.view.Type(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}

			if selectIdx < 0 {
				out := cmd.OutOrStdout()
				for i, s := range a.view.Search().Suggestions {
					fmt.Fprintf(out, "%d\t%s\t%.6f,%.6f\n", i, s.PlaceName, s.Center.Lon, s.Center.Lat)
				}
				return nil
			}

			if err := a.view.Mount(cmd.Context()); err != nil {
				return err
			}
			if err := a.view.Select(cmd.Context(), selectIdx); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.state())
		},
	}
	cmd.Flags().IntVarP(&selectIdx, "select", "s", -1, "Recenter the map on suggestion N")
	return cmd
}

func newGotoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <text>",
		Short: "Recenter the map on the best match for an address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.view.Mount(cmd.Context()); err != nil {
				return err
			}
			if err := a.view.Type(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			if err := a.view.Submit(cmd.Context()); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), a.state())
		},
	}
}

func newFridgesCmd(opts *options) *cobra.Command {
	fridgesCmd := &cobra.Command{
		Use:   "fridges",
		Short: "Read and edit fridge records",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every fridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			fridges, err := a.api.ListFridges(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fridges)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one fridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			fridge, err := a.api.GetFridge(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fridge)
		},
	}

	var (
		fields   []string
		lat, lon float64
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a fridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parseFields(fields)
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			created, err := a.api.CreateFridge(cmd.Context(), models.Fridge{
				Location: &models.Location{Lat: lat, Lon: lon},
				Fields:   parsed,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), created)
		},
	}
	addCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	addCmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	addCmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field as key=value; JSON values are kept as JSON")
	_ = addCmd.MarkFlagRequired("lat")
	_ = addCmd.MarkFlagRequired("lon")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Set fields on a fridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFields(fields)
			if err != nil {
				return err
			}
			delta := models.FieldDelta(parsed)
			if delta == nil {
				delta = models.FieldDelta{}
			}
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return fmt.Errorf("--lat and --lon must be given together")
			}
			if latSet {
				raw, err := json.Marshal(models.Location{Lat: lat, Lon: lon})
				if err != nil {
					return err
				}
				delta[models.KeyLocation] = raw
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			updated, err := a.api.UpdateFridge(cmd.Context(), args[0], delta)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), updated)
		},
	}
	updateCmd.Flags().Float64Var(&lat, "lat", 0, "New latitude")
	updateCmd.Flags().Float64Var(&lon, "lon", 0, "New longitude")
	updateCmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Field as key=value; JSON values are kept as JSON")

	fridgesCmd.AddCommand(listCmd, getCmd, addCmd, updateCmd)
	return fridgesCmd
}

// parseFields turns key=value pairs into raw JSON fields. Values that are not
// valid JSON are stored as strings.
func parseFields(pairs []string) (map[string]json.RawMessage, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(map[string]json.RawMessage, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		if json.Valid([]byte(value)) {
			fields[key] = json.RawMessage(value)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return fields, nil
}

// parseCoordinates reads "lon,lat".
func parseCoordinates(s string) (models.Coordinates, error) {
	lonText, latText, ok := strings.Cut(s, ",")
	if !ok {
		return models.Coordinates{}, fmt.Errorf("invalid position %q, expected lon,lat", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil || lon < -180 || lon > 180 {
		return models.Coordinates{}, fmt.Errorf("invalid longitude %q", lonText)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil || lat < -90 || lat > 90 {
		return models.Coordinates{}, fmt.Errorf("invalid latitude %q", latText)
	}
	return models.Coordinates{Lon: lon, Lat: lat}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
