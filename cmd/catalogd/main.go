// Command catalogd serves the item catalog over HTTP with a read-through
// query cache in front of the store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/internal/config"
	"github.com/goliatone/go-catalog-cache/pkg/di"
)

const seedWorkers = 4

func main() {
	configPath := flag.String("config", "", "path to a catalog.yaml file")
	seedPath := flag.String("seed", "", "JSON file of items to insert before serving")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *seedPath); err != nil {
		fmt.Fprintf(os.Stderr, "catalogd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, seedPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	container, err := di.NewContainer(ctx, *cfg)
	if err != nil {
		return err
	}
	logger := container.Logger()
	defer func() {
		if err := container.Close(); err != nil {
			logger.Error().Err(err).Msg("close container")
		}
	}()

	if seedPath != "" {
		n, err := seed(ctx, container, seedPath)
		if err != nil {
			return fmt.Errorf("seed %s: %w", seedPath, err)
		}
		logger.Info().Int("items", n).Str("file", seedPath).Msg("catalog seeded")
	}

	srv := container.Server()
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

type seedItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// seed validates every record up front, then inserts them concurrently.
// The first failed insert cancels the remaining ones.
func seed(ctx context.Context, container *di.Container, path string) (int, error) {
	records, err := readSeed(path)
	if err != nil {
		return 0, err
	}

	reqs := make([]catalog.CreateItemRequest, len(records))
	for i, rec := range records {
		reqs[i] = catalog.CreateItemRequest{Name: rec.Name, Description: rec.Description, Price: rec.Price}
		if err := reqs[i].Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}

	items := container.Items()
	p := pool.New().WithMaxGoroutines(seedWorkers).WithContext(ctx).WithCancelOnError()
	for _, req := range reqs {
		p.Go(func(ctx context.Context) error {
			item := req.Item()
			_, err := items.Add(ctx, &item)
			return err
		})
	}
	if err := p.Wait(); err != nil {
		return 0, err
	}
	return len(reqs), nil
}
