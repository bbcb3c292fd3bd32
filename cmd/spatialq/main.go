// Command spatialq builds point-index snapshots from particle or atom files
// and runs radius, nearest-neighbor and selection queries against them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TrevorS/pointindex"
	"github.com/TrevorS/pointindex/persist"
)

// app holds the global flags and the state derived from them.
type app struct {
	cfgFile  string
	logLevel string
	snapshot string
	dbPath   string
	name     string
	dims     int

	logger *log.Logger
	cfg    pointindex.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "spatialq",
		Short: "Build and query point index snapshots",
		Long: `spatialq bulk-loads particle or atom coordinates into a spatial index,
stores the result as a msgpack snapshot file or in a SQLite store, and runs
radius, k-nearest-neighbor and box/sphere selection queries against it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "spatialq.yaml", "config file path")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.snapshot, "snapshot", "", "snapshot file path")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite snapshot store path (used instead of --snapshot)")
	root.PersistentFlags().StringVar(&a.name, "name", "default", "snapshot name within the SQLite store")
	root.PersistentFlags().IntVar(&a.dims, "dims", 0, "dimensionality, 2 or 3 (overrides config)")

	root.AddCommand(a.buildCmd(), a.withinCmd(), a.knnCmd(), a.selectCmd(), a.statsCmd(), a.groupsCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	fc, err := loadFileConfig(a.cfgFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		fc.LogLevel = a.logLevel
	}
	if a.dims != 0 {
		fc.Dims = a.dims
	}
	if a.logger, err = newLogger(fc.LogLevel); err != nil {
		return err
	}
	a.cfg, err = fc.IndexConfig(a.logger)
	return err
}

// open loads the index named by --db/--name or --snapshot.
func (a *app) open(ctx context.Context) (*pointindex.Index, error) {
	switch {
	case a.dbPath != "":
		store, err := persist.OpenSQLite(a.dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Load(ctx, a.name, a.cfg)
	case a.snapshot != "":
		return persist.ReadFile(a.snapshot, a.cfg)
	default:
		return nil, errors.New("one of --snapshot or --db is required")
	}
}

func (a *app) buildCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bulk-load a point file and store the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadEntries(input, a.cfg.Dims)
			if err != nil {
				return err
			}
			ix, err := pointindex.BulkLoad(entries, a.cfg)
			if err != nil {
				return err
			}
			stats := ix.Stats()
			a.logger.Info("built index", "entries", stats.Entries, "nodes", stats.Nodes, "height", stats.Height)

			if a.dbPath != "" {
				store, err := persist.OpenSQLite(a.dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				id, err := store.Save(cmd.Context(), a.name, ix)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %d entries as %q (%s)\n", ix.Len(), a.name, id)
				return nil
			}
			if a.snapshot == "" {
				return errors.New("one of --snapshot or --db is required")
			}
			if err := persist.WriteFile(a.snapshot, ix); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", ix.Len(), a.snapshot)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input file (.pdb or CSV id,x,y[,z])")
	cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) withinCmd() *cobra.Command {
	var (
		center string
		radius float64
	)
	cmd := &cobra.Command{
		Use:   "within",
		Short: "List entries within a radius of a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			c, err := parsePoint(center, ix.Dims())
			if err != nil {
				return err
			}
			ns, err := ix.Within(c, radius)
			if err != nil {
				return err
			}
			return writeNeighbors(cmd.OutOrStdout(), ns)
		},
	}
	cmd.Flags().StringVar(&center, "center", "", "query point x,y[,z]")
	cmd.Flags().Float64Var(&radius, "radius", 0, "search radius")
	cmd.MarkFlagRequired("center")
	return cmd
}

func (a *app) knnCmd() *cobra.Command {
	var (
		point string
		k     int
	)
	cmd := &cobra.Command{
		Use:   "knn",
		Short: "List the k nearest entries to a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			p, err := parsePoint(point, ix.Dims())
			if err != nil {
				return err
			}
			ns, err := ix.Nearest(p, k)
			if err != nil {
				return err
			}
			return writeNeighbors(cmd.OutOrStdout(), ns)
		},
	}
	cmd.Flags().StringVar(&point, "point", "", "query point x,y[,z]")
	cmd.Flags().IntVarP(&k, "k", "k", 1, "number of neighbors")
	cmd.MarkFlagRequired("point")
	return cmd
}

func (a *app) selectCmd() *cobra.Command {
	var box, sphere string
	cmd := &cobra.Command{
		Use:   "select",
		Short: "List identifiers inside a box or sphere",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (box == "") == (sphere == "") {
				return errors.New("exactly one of --box or --sphere is required")
			}
			ix, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			var ids []int
			if box != "" {
				b, err := parseBox(box, ix.Dims())
				if err != nil {
					return err
				}
				ids, err = ix.SelectBox(b)
				if err != nil {
					return err
				}
			} else {
				s, err := parseSphere(sphere, ix.Dims())
				if err != nil {
					return err
				}
				ids, err = ix.SelectSphere(s)
				if err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&box, "box", "", "box x0,y0[,z0]:x1,y1[,z1]")
	cmd.Flags().StringVar(&sphere, "sphere", "", "sphere x,y[,z]:r")
	return cmd
}

func (a *app) groupsCmd() *cobra.Command {
	var (
		link    float64
		minSize int
	)
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Friends-of-friends grouping with a linking length",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := ix.FriendsOfFriends(link, minSize)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tSIZE\tFIRST")
			for i, g := range groups {
				fmt.Fprintf(w, "%d\t%d\t%d\n", i, len(g), g[0])
			}
			return w.Flush()
		},
	}
	cmd.Flags().Float64Var(&link, "link", 0, "linking length")
	cmd.Flags().IntVar(&minSize, "min-size", 1, "drop groups smaller than this")
	cmd.MarkFlagRequired("link")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index shape and bounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := ix.Check(); err != nil {
				return err
			}
			s := ix.Stats()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "entries\t%d\n", s.Entries)
			fmt.Fprintf(w, "nodes\t%d\n", s.Nodes)
			fmt.Fprintf(w, "leaves\t%d\n", s.Leaves)
			fmt.Fprintf(w, "height\t%d\n", s.Height)
			fmt.Fprintf(w, "metric\t%s\n", ix.Config().Metric.Name())
			if b, ok := ix.Bounds(); ok {
				fmt.Fprintf(w, "bounds\t%s - %s\n", b.Min, b.Max)
			}
			return w.Flush()
		},
	}
}

func writeNeighbors(out io.Writer, ns []pointindex.Neighbor) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDISTANCE\tPOINT")
	for _, n := range ns {
		fmt.Fprintf(w, "%d\t%.6g\t%s\n", n.ID, n.Distance, n.Point)
	}
	return w.Flush()
}
