package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/skinlens/internal/app"
	"github.com/okian/skinlens/internal/domain/model"
)

func readPhoto(path string) (model.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Photo{}, fmt.Errorf("read photo: %w", err)
	}
	return model.Photo{Filename: filepath.Base(path), Data: data}, nil
}

func (c *cli) analyzeCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "analyze <photo>",
		Short: "Upload one photo, wait for the scores and save them to history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, err := readPhoto(args[0])
			if err != nil {
				return err
			}
			var progress service.ProgressFunc
			if !quiet {
				progress = func(p service.Progress) {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%3d%% %s\n", p.Percent, p.Stage)
				}
			}
			rec, err := c.svc.Analyze(cmd.Context(), photo, progress)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress lines")
	return cmd
}

type batchLine struct {
	Filename string             `json:"filename"`
	Record   *model.PhotoRecord `json:"record,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func (c *cli) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <photo>...",
		Short: "Analyze several photos concurrently on the worker pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photos := make([]model.Photo, 0, len(args))
			for _, path := range args {
				p, err := readPhoto(path)
				if err != nil {
					return err
				}
				photos = append(photos, p)
			}
			items, err := c.svc.AnalyzeBatch(cmd.Context(), photos)
			lines := make([]batchLine, len(items))
			failed := 0
			for i, it := range items {
				lines[i].Filename = it.Filename
				if it.Err != nil {
					lines[i].Error = it.Err.Error()
					failed++
					continue
				}
				rec := it.Record
				lines[i].Record = &rec
			}
			if printErr := printJSON(cmd.OutOrStdout(), lines); printErr != nil {
				return printErr
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d photos failed", failed, len(items))
			}
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List analyzed photos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := c.svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTAKEN\tMETRICS")
			for _, r := range recs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", r.ID, r.Timestamp.Local().Format("2006-01-02 15:04"), r.Metrics.Len())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max photos, 0 for all")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [photo-id]",
		Short: "Print one photo record; the latest when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				rec model.PhotoRecord
				err error
			)
			if len(args) == 0 {
				rec, err = c.svc.Latest(cmd.Context())
			} else {
				rec, err = c.svc.Photo(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func (c *cli) metricCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metric <photo-id> <key>",
		Short: "Show one metric of a photo with its trend across history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.svc.MetricDetail(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <photo-id>",
		Short: "Delete a photo at the vendor and from local history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.svc.DeletePhoto(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return err
		},
	}
}

func (c *cli) masksCmd() *cobra.Command {
	var render string
	cmd := &cobra.Command{
		Use:   "masks <photo-id>",
		Short: "List overlays for a photo, or render one with --render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if render != "" {
				m, err := c.svc.RequestMask(cmd.Context(), args[0], render)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), m)
			}
			masks, err := c.svc.Masks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), masks)
		},
	}
	cmd.Flags().StringVar(&render, "render", "", "metric key to render an overlay for")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <before-id> <after-id>",
		Short: "Show per-metric changes between two photos",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := c.svc.Compare(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cmp)
		},
	}
}
