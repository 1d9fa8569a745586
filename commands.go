package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rpupo63/blogicum/api"
	"github.com/rpupo63/blogicum/config"
	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/errs"
	"github.com/rpupo63/blogicum/models"
	"github.com/rpupo63/blogicum/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func rootCmd() *cobra.Command {
	var logLevel string
	var pretty bool

	cmd := &cobra.Command{
		Use:           "blogicum",
		Short:         "Blogicum blogging platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q", logLevel)
			}
			zerolog.SetGlobalLevel(level)
			if pretty {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human readable log output")

	cmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		categoryCmd(),
		locationCmd(),
		postCmd(),
		userCmd(),
		genCmd(),
	)
	return cmd
}

// loadConfig reads the environment and, when SSM_PARAMETER_PATH is set,
// fills missing keys from Parameter Store.
func loadConfig(ctx context.Context) (map[string]string, error) {
	c := config.New()

	prefix := config.GetString(c, "SSM_PARAMETER_PATH", "")
	if prefix == "" {
		return c, nil
	}
	store, err := config.NewParameterStore(ctx, config.GetString(c, "AWS_REGION", ""))
	if err != nil {
		return nil, err
	}
	n, err := config.OverlayParameters(ctx, store, prefix, c)
	if err != nil {
		return nil, fmt.Errorf("load parameters from %s: %w", prefix, err)
	}
	log.Info().Int("count", n).Str("path", prefix).Msg("loaded parameters from SSM")
	return c, nil
}

func openDatabase(ctx context.Context) (map[string]string, *gorm.DB, database.Database, error) {
	c, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, database.Database{}, err
	}
	db, err := database.Open(c)
	if err != nil {
		return nil, nil, database.Database{}, err
	}
	currentDB := database.New(db)
	if err := currentDB.Ping(ctx); err != nil {
		return nil, nil, database.Database{}, fmt.Errorf("testing database connection: %w", err)
	}
	return c, db, currentDB, nil
}

func parseID(kind, raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return uint(id), nil
}

func publishedState(published bool) string {
	if published {
		return "published"
	}
	return "hidden"
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, db, currentDB, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			if !skipMigrate {
				if err := currentDB.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			media, err := services.NewMediaStore(ctx, c)
			if err != nil {
				return err
			}

			server, err := api.NewServer(currentDB, media, c)
			if err != nil {
				return fmt.Errorf("initializing server: %w", err)
			}

			errChannel := make(chan error, 1)
			go server.Start(errChannel)
			go listenToInterrupt(errChannel)

			fatalErr := <-errChannel
			log.Info().Msgf("Closing server: %v", fatalErr)

			server.ShutdownGracefully(30 * time.Second)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not auto-migrate the schema on startup")
	return cmd
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			if err := currentDB.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	var title, description string
	var hidden bool
	create := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]
			if !models.ValidSlug(slug) {
				return fmt.Errorf("invalid slug %q: use letters, digits, hyphens and underscores", slug)
			}
			if title == "" {
				title = slug
			}

			_, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			category := &models.Category{
				Title:       title,
				Slug:        slug,
				Description: description,
				Publishable: models.Publishable{IsPublished: !hidden},
			}
			if err := currentDB.CategoryRepo().Add(cmd.Context(), category); err != nil {
				return errs.NewDatabaseError("create category", "category", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created category %d (%s)\n", category.ID, category.Slug)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "Display title (defaults to the slug)")
	create.Flags().StringVar(&description, "description", "", "Description shown on the category page")
	create.Flags().BoolVar(&hidden, "hidden", false, "Create the category unpublished")

	setPublished := func(use, short string, published bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <slug>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, db, currentDB, err := openDatabase(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDatabase(db)

				if err := currentDB.CategoryRepo().SetPublished(cmd.Context(), args[0], published); err != nil {
					return errs.NewDatabaseError(use+" category", "category", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "category %s is now %s\n", args[0], publishedState(published))
				return nil
			},
		}
	}

	remove := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a category; its posts lose their category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			category, err := currentDB.CategoryRepo().FindBySlug(cmd.Context(), args[0])
			if err != nil {
				return errs.NewDatabaseError("find category", "category", err)
			}
			if err := currentDB.CategoryRepo().Delete(cmd.Context(), category.ID); err != nil {
				return errs.NewDatabaseError("delete category", "category", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted category %s\n", category.Slug)
			return nil
		},
	}

	cmd.AddCommand(
		create,
		setPublished("publish", "Publish a category", true),
		setPublished("hide", "Hide a category and its posts", false),
		remove,
	)
	return cmd
}

func locationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage locations",
	}

	var hidden bool
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			location := &models.Location{Name: args[0], Publishable: models.Publishable{IsPublished: !hidden}}
			if err := currentDB.LocationRepo().Add(cmd.Context(), location); err != nil {
				return errs.NewDatabaseError("create location", "location", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created location %d (%s)\n", location.ID, location.Name)
			return nil
		},
	}
	create.Flags().BoolVar(&hidden, "hidden", false, "Create the location unpublished")

	setPublished := func(use, short string, published bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("location", args[0])
				if err != nil {
					return err
				}

				_, db, currentDB, err := openDatabase(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDatabase(db)

				location, err := currentDB.LocationRepo().FindByID(cmd.Context(), id)
				if err != nil {
					return errs.NewDatabaseError("find location", "location", err)
				}
				if err := currentDB.LocationRepo().SetPublished(cmd.Context(), location.ID, published); err != nil {
					return errs.NewDatabaseError(use+" location", "location", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "location %d (%s) is now %s\n", location.ID, location.Name, publishedState(published))
				return nil
			},
		}
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a location; its posts lose their location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("location", args[0])
			if err != nil {
				return err
			}

			_, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			if err := currentDB.LocationRepo().Delete(cmd.Context(), id); err != nil {
				return errs.NewDatabaseError("delete location", "location", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted location %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(
		create,
		setPublished("publish", "Show a location on posts again", true),
		setPublished("hide", "Stop showing a location on posts", false),
		remove,
	)
	return cmd
}

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Moderate posts",
	}

	setPublished := func(use, short string, published bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("post", args[0])
				if err != nil {
					return err
				}

				_, db, currentDB, err := openDatabase(cmd.Context())
				if err != nil {
					return err
				}
				defer closeDatabase(db)

				if err := currentDB.PostRepo().SetPublished(cmd.Context(), id, published); err != nil {
					return errs.NewDatabaseError(use+" post", "post", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "post %d is now %s\n", id, publishedState(published))
				return nil
			},
		}
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post with its comments and image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("post", args[0])
			if err != nil {
				return err
			}

			c, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			post, err := currentDB.PostRepo().FindByID(cmd.Context(), id)
			if err != nil {
				return errs.NewDatabaseError("find post", "post", err)
			}
			if err := currentDB.PostRepo().Delete(cmd.Context(), post.ID); err != nil {
				return errs.NewDatabaseError("delete post", "post", err)
			}
			if post.Image != "" {
				media, err := services.NewMediaStore(cmd.Context(), c)
				if err != nil {
					return err
				}
				if err := media.Delete(cmd.Context(), post.Image); err != nil {
					log.Warn().Err(err).Str("key", post.Image).Msg("could not delete image")
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted post %d (%s)\n", post.ID, post.Title)
			return nil
		},
	}

	cmd.AddCommand(
		setPublished("publish", "Make a hidden post visible again", true),
		setPublished("hide", "Hide a post from everyone but its author", false),
		remove,
	)
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var email, password string
	var staff bool
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			if !models.ValidUsername(username) {
				return fmt.Errorf("invalid username %q", username)
			}
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			_, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			user := &models.User{Username: username, Email: email, IsStaff: staff}
			if err := user.SetPassword(password); err != nil {
				return err
			}
			if err := currentDB.UserRepo().Add(cmd.Context(), user); err != nil {
				return errs.NewDatabaseError("create user", "user", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Username)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "Email address")
	create.Flags().StringVar(&password, "password", "", "Password (at least 8 characters)")
	create.Flags().BoolVar(&staff, "staff", false, "Let the user delete any post")
	_ = create.MarkFlagRequired("password")

	remove := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user together with their posts and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, currentDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			user, err := currentDB.UserRepo().FindByUsername(cmd.Context(), args[0])
			if err != nil {
				return errs.NewDatabaseError("find user", "user", err)
			}
			if err := currentDB.UserRepo().Delete(cmd.Context(), user.ID); err != nil {
				return errs.NewDatabaseError("delete user", "user", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", user.Username)
			return nil
		},
	}

	cmd.AddCommand(create, remove)
	return cmd
}

func genCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Code generation and schema checks",
	}

	var outPath string
	genModels := &cobra.Command{
		Use:   "models",
		Short: "Generate typed query helpers for the blog models",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			if err := models.GenerateQueries(db, outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "query helpers written to %s\n", outPath)
			return nil
		},
	}
	genModels.Flags().StringVar(&outPath, "out", "./query", "Output directory")

	report := &cobra.Command{
		Use:   "report",
		Short: "List database columns the models do not know about",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			_, err = models.ColumnReport(db, cmd.OutOrStdout())
			return err
		},
	}

	cmd.AddCommand(genModels, report)
	return cmd
}
