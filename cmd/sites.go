package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/query"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	exportDir  string
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Inspect and repair the hosting root",
}

var sitesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List every deployed site",
	Args:    cobra.NoArgs,
	RunE:    runSitesList,
}

var sitesRemoveCmd = &cobra.Command{
	Use:     "remove <subdomain>",
	Aliases: []string{"rm"},
	Short:   "Take a site offline",
	Long: `Remove a deployed bundle from the hosting root.

The website record keeps its hosting fields until the owner undeploys it,
which then succeeds without a bundle.`,
	Args: cobra.ExactArgs(1),
	RunE: runSitesRemove,
}

var sitesExportCmd = &cobra.Command{
	Use:   "export <website-id>",
	Short: "Write a website's static export archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitesExport,
}

var sitesRestoreCmd = &cobra.Command{
	Use:   "restore <subdomain>",
	Short: "Republish a site from its object storage mirror",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitesRestore,
}

var sitesSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete leftovers of interrupted deployments",
	Args:  cobra.NoArgs,
	RunE:  runSitesSweep,
}

func init() {
	sitesListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	sitesExportCmd.Flags().StringVarP(&exportDir, "output", "o", ".", "Directory the archive is written to")
	sitesCmd.AddCommand(sitesListCmd, sitesRemoveCmd, sitesExportCmd, sitesRestoreCmd, sitesSweepCmd)
	rootCmd.AddCommand(sitesCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runSitesList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := hostingConfig()
	fsStore, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sites, err := fsStore.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].Subdomain < sites[j].Subdomain })

	if jsonOutput {
		return printJSON(sites)
	}
	if len(sites) == 0 {
		warn("No sites deployed under %s", cfg.Root)
		return nil
	}
	rows := make([][]string, 0, len(sites))
	for _, s := range sites {
		ssl := "no"
		if s.SSLEnabled {
			ssl = "yes"
		}
		rows = append(rows, []string{s.Subdomain, s.WebsiteName, s.HostingURL, ssl, s.DeployedAt.Format(time.DateTime)})
	}
	printTable([]string{"SUBDOMAIN", "WEBSITE", "URL", "SSL", "DEPLOYED"}, rows)
	return nil
}

func runSitesRemove(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := hostingConfig()
	fsStore, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	manager, err := newManager(cfg, fsStore)
	if err != nil {
		return err
	}

	result, err := manager.Undeploy(ctx, args[0])
	if err != nil {
		return err
	}
	success("%s", result.Message)
	return nil
}

func runSitesExport(cmd *cobra.Command, args []string) error {
	websiteID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid website id %q, %v", args[0], err)
	}
	ctx := commandContext(cmd)
	cfg := hostingConfig()

	uowFactory, err := newUoWFactory(ctx)
	if err != nil {
		return err
	}
	defer uowFactory.Pool.Close()
	fsStore, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	manager, err := newManager(cfg, fsStore)
	if err != nil {
		return err
	}

	export, err := query.NewExportSite(uowFactory, manager).QueryAny(ctx, websiteID)
	if err != nil {
		return err
	}
	path := filepath.Join(exportDir, export.Filename)
	if err := os.WriteFile(path, export.Archive, 0o644); err != nil {
		return err
	}
	success("Wrote %s (%d bytes)", path, len(export.Archive))
	return nil
}

func runSitesRestore(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := hostingConfig()

	mirror, err := newMirror(ctx)
	if err != nil {
		return err
	}
	if mirror == nil {
		return errors.New("object storage mirror is disabled, set S3_MIRROR_ENABLED=true")
	}
	tree, err := mirror.FetchBundle(ctx, args[0])
	if errors.Is(err, storage.ErrNotMirrored) {
		warn("No mirror found for %s", args[0])
		return err
	}
	if err != nil {
		return err
	}

	fsStore, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	manager, err := newManager(cfg, fsStore)
	if err != nil {
		return err
	}
	result, err := manager.Restore(ctx, args[0], tree)
	if err != nil {
		return err
	}
	success("%s (%d files)", result.Message, len(tree))
	return nil
}

func runSitesSweep(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	fsStore, closeStore, err := newStore(ctx, hostingConfig())
	if err != nil {
		return err
	}
	defer closeStore()
	if err := fsStore.Sweep(ctx); err != nil {
		return err
	}
	success("Swept %s", fsStore.Root())
	return nil
}
