package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"healthdir/internal/adapters/auth"
	"healthdir/internal/adapters/catalog"
	"healthdir/internal/adapters/observability"
	"healthdir/internal/app"
	"healthdir/internal/bootstrap"
	"healthdir/internal/shared"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "seed",
		Short:         "Directory data maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(fixSlugsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("seed failed")
		stop()
		os.Exit(1)
	}
}

type deps struct {
	cfg   shared.Config
	store bootstrap.Store
	admin *app.AdminService
	close func()
}

func open(ctx context.Context) (deps, error) {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return deps{}, err
	}
	cache, closeCache := bootstrap.OpenCache(ctx, cfg)
	return deps{
		cfg:   cfg,
		store: store,
		admin: app.NewAdminService(store, cache, nil),
		close: func() {
			_ = closeCache()
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(cctx)
		},
	}, nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the seed catalog into an empty store and create the admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := open(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			file, _ := cmd.Flags().GetString("catalog")
			url, _ := cmd.Flags().GetString("catalog-url")
			if url == "" {
				url = d.cfg.CatalogURL
			}
			cat, err := loadCatalog(ctx, file, url, d.cfg.CatalogKey)
			if err != nil {
				return err
			}

			seeded, err := app.NewSeeder(d.admin, d.store, cat).EnsureSeeded(ctx)
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Println("Store already holds hospitals; nothing seeded.")
			} else {
				fmt.Printf("Seeded %d hospitals, %d treatments, %d doctors.\n",
					len(cat.Hospitals), len(cat.Treatments), len(cat.Doctors))
			}

			skipAdmin, _ := cmd.Flags().GetBool("skip-admin")
			if skipAdmin {
				return nil
			}
			authSvc := app.NewAuthService(d.store, auth.NewBcrypt(0), auth.NewStatic("", d.cfg.AdminUsername))
			created, err := authSvc.EnsureAdmin(ctx, d.cfg.AdminUsername, d.cfg.AdminPassword)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			if created {
				fmt.Printf("Admin user %q created.\n", d.cfg.AdminUsername)
			}
			return nil
		},
	}
	cmd.Flags().String("catalog", "", "Path to a JSON seed catalog (default: built-in)")
	cmd.Flags().String("catalog-url", "", "URL of a JSON seed catalog (default: CATALOG_URL)")
	cmd.Flags().Bool("skip-admin", false, "Do not create the admin user")
	return cmd
}

func fixSlugsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix-slugs",
		Short: "Recompute every treatment slug from its name",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := open(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = d.cfg.SlugWorkers
			}
			res, err := d.admin.FixSlugs(ctx, workers)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d of %d treatment slugs.\n", res.Updated, res.Total)
			return nil
		},
	}
	cmd.Flags().Int("workers", 0, "Concurrent updates (default: SLUG_WORKERS)")
	return cmd
}

// loadCatalog prefers a local file, then a URL, then the built-in catalog.
func loadCatalog(ctx context.Context, file, url, key string) (app.Catalog, error) {
	switch {
	case file != "":
		return readCatalog(file)
	case url != "":
		log.Info().Str("url", url).Msg("fetching seed catalog")
		return catalog.New(key, 5).Fetch(ctx, url)
	default:
		return app.DefaultCatalog()
	}
}

func readCatalog(path string) (app.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return app.Catalog{}, err
	}
	defer f.Close()
	return app.ReadCatalog(f)
}
