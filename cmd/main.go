package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kyz7/sitecms/internal/admin"
	"github.com/Kyz7/sitecms/internal/blob"
	"github.com/Kyz7/sitecms/internal/config"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/jobs"
	"github.com/Kyz7/sitecms/internal/media"
	"github.com/Kyz7/sitecms/internal/ratelimit"
	"github.com/Kyz7/sitecms/internal/seed"
	"github.com/Kyz7/sitecms/internal/server"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "sitecms",
		Short:         "Content API for the company marketing site",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCreateAdminCmd())
	root.AddCommand(newAuditMediaCmd())
	return root
}

// connect loads config, opens the database and migrates it.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	config.Current = cfg

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	return cfg, db, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}

			if err := seed.Defaults(db); err != nil {
				log.Println("⚠️  Failed to seed default content:", err)
			}

			// ========== BLOB STORAGE ==========
			store, err := blob.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("blob storage: %w", err)
			}
			media.UseStore(store)
			if store != nil {
				log.Printf("☁️  Direct uploads via %s", store.Provider())
			} else {
				log.Println("💾 Direct uploads disabled, inline/chunked storage only")
			}

			// ========== RATE LIMIT STORAGE ==========
			if cfg.RateLimitRedisAddr != "" {
				rs, err := ratelimit.NewRedisStorage(cfg.RateLimitRedisAddr, cfg.RateLimitRedisPassword)
				if err != nil {
					return fmt.Errorf("rate limit storage: %w", err)
				}
				defer rs.Close()
				ratelimit.Storage = rs
				log.Println("✅ Rate limits shared through Redis")
			}

			// ========== BACKGROUND JOBS ==========
			sweeper, err := jobs.Start(db, cfg.SweepSchedule)
			if err != nil {
				return fmt.Errorf("schedule sweep: %w", err)
			}
			defer sweeper.Stop()

			// ========== START SERVER ==========
			app := server.New(db)

			errCh := make(chan error, 1)
			go func() {
				log.Printf("🚀 Site CMS starting on %s", cfg.ServerAddr)
				errCh <- app.Listen(cfg.ServerAddr)
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
				log.Println("🛑 Shutting down")
				return app.ShutdownWithTimeout(10 * time.Second)
			}
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema and SQL migrations, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}

			applied, err := database.AppliedMigrations(db)
			if err != nil {
				return err
			}
			for _, m := range applied {
				fmt.Printf("%s\t%s\n", m.Version, m.AppliedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or reset its password if it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}

			user, created, err := admin.CreateOrReset(db, username, password)
			if err != nil {
				return err
			}
			if created {
				log.Printf("✅ Admin %q created (id %d)", user.Username, user.ID)
			} else {
				log.Printf("✅ Password reset for admin %q", user.Username)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password (min 8 characters)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAuditMediaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-media",
		Short: "List chunked images whose stored chunks do not match their chunk count",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			incomplete, err := media.FindIncomplete(ctx, db)
			if err != nil {
				return err
			}
			if len(incomplete) == 0 {
				log.Println("✅ All chunked images are complete")
				return nil
			}

			for _, img := range incomplete {
				fmt.Printf("%d\t%s\texpected=%d\tstored=%d\n", img.ID, img.Filename, img.Expected, img.Stored)
			}
			return fmt.Errorf("%d incomplete chunked image(s)", len(incomplete))
		},
	}
}
