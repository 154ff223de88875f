package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/todoey"
	"github.com/poiesic/todoey/api"
	"github.com/poiesic/todoey/core"
	"github.com/poiesic/todoey/dispatch"
	"github.com/poiesic/todoey/migrate"
	"github.com/poiesic/todoey/storage/badger"
	"github.com/poiesic/todoey/todo"
	"github.com/urfave/cli/v2"
)

// withRepository opens the configured store, runs fn and closes the store.
func withRepository(c *cli.Context, fn func(ctx context.Context, repo *todo.Repository) error) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(c.Context, db.Repository())
}

// argFrom returns the positional argument at i, or an error naming it.
func argFrom(c *cli.Context, i int, name string) (string, error) {
	if c.NArg() <= i {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return c.Args().Get(i), nil
}

// restFrom joins the positional arguments from i on, so titles need no quoting.
func restFrom(c *cli.Context, i int, name string) (string, error) {
	if c.NArg() <= i {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return strings.Join(c.Args().Slice()[i:], " "), nil
}

func printCategories(w io.Writer, categories []*core.Category) {
	for _, category := range categories {
		fmt.Fprintf(w, "%s\t%s\t%s\n", category.ID, category.Name, category.Color)
	}
}

func printItems(w io.Writer, items []*core.Item) {
	for _, item := range items {
		printItem(w, item)
	}
}

func printItem(w io.Writer, item *core.Item) {
	mark := " "
	if item.Done {
		mark = "x"
	}
	fmt.Fprintf(w, "%s\t[%s] %s\n", item.ID, mark, item.Title)
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "List and edit categories",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List categories in creation order",
				Action: func(c *cli.Context) error {
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						categories, err := repo.ListCategories(ctx)
						if err != nil {
							return err
						}
						printCategories(c.App.Writer, categories)
						return nil
					})
				},
			},
			{
				Name:      "add",
				Usage:     "Create a category",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					name, err := restFrom(c, 0, "NAME")
					if err != nil {
						return err
					}
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						category, err := repo.CreateCategory(ctx, name)
						if err != nil {
							return err
						}
						printCategories(c.App.Writer, []*core.Category{category})
						return nil
					})
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a category",
				ArgsUsage: "ID NAME",
				Action: func(c *cli.Context) error {
					id, err := argFrom(c, 0, "ID")
					if err != nil {
						return err
					}
					name, err := restFrom(c, 1, "NAME")
					if err != nil {
						return err
					}
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						category, err := repo.RenameCategory(ctx, core.ID(id), name)
						if err != nil {
							return err
						}
						printCategories(c.App.Writer, []*core.Category{category})
						return nil
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a category and all of its items",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := argFrom(c, 0, "ID")
					if err != nil {
						return err
					}
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						return repo.DeleteCategory(ctx, core.ID(id))
					})
				},
			},
			{
				Name:      "search",
				Usage:     "Find categories whose name contains QUERY",
				ArgsUsage: "QUERY",
				Action: func(c *cli.Context) error {
					query := strings.Join(c.Args().Slice(), " ")
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						categories, err := repo.SearchCategories(ctx, query)
						if err != nil {
							return err
						}
						printCategories(c.App.Writer, categories)
						return nil
					})
				},
			},
		},
	}
}

func itemsCommand() *cli.Command {
	categoryFlag := &cli.StringFlag{
		Name:    "category",
		Aliases: []string{"c"},
		Usage:   "Category ID",
		Value:   core.DefaultCategoryID.String(),
	}

	return &cli.Command{
		Name:  "items",
		Usage: "List and edit the items of a category",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List items in creation order",
				Flags: []cli.Flag{categoryFlag},
				Action: func(c *cli.Context) error {
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						items, err := repo.ListItems(ctx, core.ID(c.String("category")))
						if err != nil {
							return err
						}
						printItems(c.App.Writer, items)
						return nil
					})
				},
			},
			{
				Name:      "add",
				Usage:     "Create an item",
				ArgsUsage: "TITLE",
				Flags:     []cli.Flag{categoryFlag},
				Action: func(c *cli.Context) error {
					title, err := restFrom(c, 0, "TITLE")
					if err != nil {
						return err
					}
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						item, err := repo.CreateItem(ctx, core.ID(c.String("category")), title)
						if err != nil {
							return err
						}
						printItem(c.App.Writer, item)
						return nil
					})
				},
			},
			{
				Name:      "toggle",
				Usage:     "Flip the done flag of an item",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := argFrom(c, 0, "ID")
					if err != nil {
						return err
					}
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						item, err := repo.ToggleDone(ctx, core.ID(id))
						if err != nil {
							return err
						}
						printItem(c.App.Writer, item)
						return nil
					})
				},
			},
			{
				Name:      "rename",
				Usage:     "Change the title of an item",
				ArgsUsage: "ID TITLE",
				Action: func(c *cli.Context) error {
					id, err := argFrom(c, 0, "ID")
					if err != nil {
						return err
					}
					title, err := restFrom(c, 1, "TITLE")
					if err != nil {
						return err
					}
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						item, err := repo.RenameItem(ctx, core.ID(id), title)
						if err != nil {
							return err
						}
						printItem(c.App.Writer, item)
						return nil
					})
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete an item",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id, err := argFrom(c, 0, "ID")
					if err != nil {
						return err
					}
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						return repo.DeleteItem(ctx, core.ID(id))
					})
				},
			},
			{
				Name:      "search",
				Usage:     "Find items whose title contains QUERY",
				ArgsUsage: "QUERY",
				Flags:     []cli.Flag{categoryFlag},
				Action: func(c *cli.Context) error {
					query := strings.Join(c.Args().Slice(), " ")
					return withRepository(c, func(ctx context.Context, repo *todo.Repository) error {
						items, err := repo.SearchItems(ctx, core.ID(c.String("category")), query)
						if err != nil {
							return err
						}
						printItems(c.App.Writer, items)
						return nil
					})
				},
			},
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Copy every category and item into another store",
		Action: migrateAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "to-backend",
				Usage:    "Target storage backend (memory, plist, badger, sqlite)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "to-path",
				Usage: "Target data file or directory",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of entities written per batch",
				Value: migrate.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N entities",
				Value: migrate.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum attempts per batch",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 100 * time.Millisecond,
			},
			&cli.StringFlag{
				Name:    "checkpoint",
				Usage:   "Directory for resume checkpoints; an interrupted migration continues from it",
				EnvVars: []string{"TODOEY_CHECKPOINT"},
			},
		},
	}
}

func migrateAction(c *cli.Context) error {
	target := todoey.NewConfig(
		todoey.WithBackend(todoey.Backend(c.String("to-backend"))),
		todoey.WithPath(c.String("to-path")),
	)
	if err := target.Validate(); err != nil {
		return err
	}

	config := &migrate.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	source := db.Config()
	if source.Backend == target.Backend && source.Path == target.Path {
		return errors.New("source and target are the same store")
	}

	store, err := todoey.OpenStore(target.Backend, target.Path, nil)
	if err != nil {
		return fmt.Errorf("failed to open %s target: %w", target.Backend, err)
	}
	defer store.Close()

	if dir := c.String("checkpoint"); dir != "" {
		checkpoints, err := badger.OpenCheckpointStore(dir, nil)
		if err != nil {
			return fmt.Errorf("failed to open checkpoints: %w", err)
		}
		defer checkpoints.Close()
		config.Checkpoints = checkpoints
		config.CheckpointKey = fmt.Sprintf("%s:%s>%s:%s", source.Backend, source.Path, target.Backend, target.Path)
	}

	migrator, err := db.NewMigrator(store, config, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Source: %s %s\n", source.Backend, source.Path)
	fmt.Fprintf(c.App.ErrWriter, "Target: %s %s\n", target.Backend, target.Path)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := migrator.Run(c.Context); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the store over HTTP",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   ":8080",
				EnvVars: []string{"TODOEY_ADDR"},
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Attempts per request when the store reports a persistence failure",
				Value: 1,
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "How long to wait for in-flight requests on shutdown",
				Value: 10 * time.Second,
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	d, err := db.NewDispatcher(dispatch.WithRetry(c.Int("max-retries"), 100*time.Millisecond))
	if err != nil {
		return err
	}
	defer d.Release()

	server, err := api.NewServer(d)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start(c.String("addr"))
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
