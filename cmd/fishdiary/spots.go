package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/pkg/diary"
)

// withDiary opens the diary for one command and closes it afterwards.
func (c *cli) withDiary(cmd *cobra.Command, fn func(ctx context.Context, d *diary.Diary) error) error {
	ctx := cmd.Context()
	d, err := c.openDiary(ctx, c.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			c.log.Warn().Err(err).Msg("close diary")
		}
	}()
	return fn(ctx, d)
}

func (c *cli) listCmd() *cobra.Command {
	var (
		near   string
		radius float64
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved spots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var from *domain.Coordinate
			if near != "" {
				coord, err := parseLatLng(near)
				if err != nil {
					return err
				}
				from = &coord
			}
			return c.withDiary(cmd, func(_ context.Context, d *diary.Diary) error {
				spots := d.Spots()
				out := cmd.OutOrStdout()
				if from == nil {
					if asJSON {
						return writeJSON(out, spots)
					}
					return writeSpotTable(out, spots, nil)
				}
				results := domain.Nearby(spots, *from, radius)
				if asJSON {
					return writeJSON(out, results)
				}
				ordered := make([]domain.Spot, len(results))
				meters := make([]float64, len(results))
				for i, r := range results {
					ordered[i] = r.Spot
					meters[i] = r.Meters
				}
				return writeSpotTable(out, ordered, meters)
			})
		},
	}
	cmd.Flags().StringVar(&near, "near", "", "only spots near LAT,LNG, closest first")
	cmd.Flags().Float64Var(&radius, "radius", 0, "radius in meters for --near (0 means no limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print one spot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withDiary(cmd, func(_ context.Context, d *diary.Diary) error {
				spot, ok := d.Spot(id)
				if !ok {
					return fmt.Errorf("spot %d: %w", id, diary.ErrNotFound)
				}
				return writeJSON(cmd.OutOrStdout(), spot)
			})
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	var (
		lat, lng    float64
		title, desc string
		images      []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a new spot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord := diary.Coordinate{Latitude: lat, Longitude: lng}
			if !coord.Valid() {
				return fmt.Errorf("coordinate %s is out of range", coord)
			}
			return c.withDiary(cmd, func(ctx context.Context, d *diary.Diary) error {
				ed := d.NewDraft(coord)
				if err := ed.SetTitle(title); err != nil {
					return err
				}
				if err := ed.SetDescription(desc); err != nil {
					return err
				}
				if _, err := ed.AddImages(images...); err != nil {
					return err
				}
				if _, err := ed.Save(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved spot %d\n", ed.Spot().ID)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&title, "title", "", "spot name")
	cmd.Flags().StringVar(&desc, "description", "", "notes")
	cmd.Flags().StringArrayVar(&images, "image", nil, "photo URI (repeatable)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var (
		title, desc string
		addImages   []string
		dropImages  []float64
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the title, notes or photos of a spot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			return c.withDiary(cmd, func(ctx context.Context, d *diary.Diary) error {
				ed, err := d.Edit(id)
				if err != nil {
					return err
				}
				if flags.Changed("title") {
					if err := ed.SetTitle(title); err != nil {
						return err
					}
				}
				if flags.Changed("description") {
					if err := ed.SetDescription(desc); err != nil {
						return err
					}
				}
				for _, imgID := range dropImages {
					if err := ed.RemoveImage(imgID); err != nil {
						return err
					}
				}
				if _, err := ed.AddImages(addImages...); err != nil {
					return err
				}
				if _, err := ed.Save(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated spot %d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new spot name")
	cmd.Flags().StringVar(&desc, "description", "", "new notes")
	cmd.Flags().StringArrayVar(&addImages, "add-image", nil, "attach a photo URI (repeatable)")
	cmd.Flags().Float64SliceVar(&dropImages, "remove-image", nil, "detach photos by id")
	return cmd
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a spot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withDiary(cmd, func(ctx context.Context, d *diary.Diary) error {
				ed, err := d.Edit(id)
				if err != nil {
					return err
				}
				if _, err := ed.Delete(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted spot %d\n", id)
				return nil
			})
		},
	}
}

func (c *cli) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the store and report how many spots it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withDiary(cmd, func(ctx context.Context, d *diary.Diary) error {
				spots, err := d.Refresh(ctx)
				if err != nil && !errors.Is(err, diary.ErrCorruptData) {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d spots\n", len(spots))
				return nil
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeSpotTable renders spots as a bordered table. meters, when set,
// adds a distance column.
func writeSpotTable(w io.Writer, spots []domain.Spot, meters []float64) error {
	if len(spots) == 0 {
		_, err := fmt.Fprintln(w, "no spots")
		return err
	}

	headers := []string{"ID", "TITLE", "COORDINATE", "PHOTOS"}
	if meters != nil {
		headers = append(headers, "DISTANCE")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for i, s := range spots {
		row := []string{
			strconv.FormatInt(s.ID, 10),
			s.Title,
			s.Coordinate.String(),
			strconv.Itoa(len(s.Images)),
		}
		if meters != nil {
			row = append(row, formatMeters(meters[i]))
		}
		t.Row(row...)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func formatMeters(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", m)
	}
	return fmt.Sprintf("%.1f km", m/1000)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid spot id %q", s)
	}
	return id, nil
}

func parseLatLng(s string) (domain.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("want LAT,LNG, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("latitude %q: %w", latStr, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("longitude %q: %w", lngStr, err)
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lng}
	if !c.Valid() {
		return domain.Coordinate{}, fmt.Errorf("coordinate %s is out of range", c)
	}
	return c, nil
}
