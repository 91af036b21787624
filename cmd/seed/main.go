package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"pozt-backend/internal/cache"
	"pozt-backend/internal/config"
	"pozt-backend/internal/db"
	"pozt-backend/internal/logging"
	"pozt-backend/internal/models"
	"pozt-backend/internal/repositories"
	"pozt-backend/internal/services"
)

type city struct {
	Name  string
	Short string
}

// Reference data loaded by a fresh install.
var regions = []struct {
	State  string
	Cities []city
}{
	{"Maharashtra", []city{{"Mumbai", "BOM"}, {"Pune", "PNQ"}, {"Nagpur", "NAG"}}},
	{"Karnataka", []city{{"Bengaluru", "BLR"}, {"Mysuru", "MYQ"}}},
	{"Delhi", []city{{"New Delhi", "DEL"}}},
	{"Tamil Nadu", []city{{"Chennai", "MAA"}, {"Coimbatore", "CJB"}}},
	{"West Bengal", []city{{"Kolkata", "CCU"}}},
	{"Telangana", []city{{"Hyderabad", "HYD"}}},
	{"Gujarat", []city{{"Ahmedabad", "AMD"}, {"Surat", "STV"}}},
	{"Rajasthan", []city{{"Jaipur", "JAI"}}},
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	resetData := flag.Bool("reset", false, "delete users, otps, shippers and orders before seeding")
	resetAll := flag.Bool("reset-locations", false, "with -reset, also delete states and cities")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.LoadWith(ctx, *configPath, config.FetchJWTSecret)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	if *resetData {
		tables := resetTables(*resetAll)
		if !confirm(os.Stdin, os.Stdout, tables) {
			fmt.Println("Reset cancelled.")
			return
		}
		if err := reset(ctx, pool, tables); err != nil {
			logger.Fatal("reset", zap.Error(err))
		}
		logger.Info("tables truncated", zap.Strings("tables", tables))
	}

	locations := services.NewLocationService(repositories.NewLocationRepository(pool), cache.Disabled(logger), logger)

	added, err := seed(ctx, locations)
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("cities_added", added))

	cities, err := locations.ListCities(ctx)
	if err != nil {
		logger.Fatal("list cities", zap.Error(err))
	}
	if err := printCities(cities); err != nil {
		logger.Fatal("print", zap.Error(err))
	}
}

// seed inserts missing states and cities. Existing rows are left alone.
func seed(ctx context.Context, locations *services.LocationService) (int, error) {
	existing, err := locations.ListStates(ctx)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]*models.State, len(existing))
	for _, s := range existing {
		byName[s.Name] = s
	}

	added := 0
	for _, region := range regions {
		state, ok := byName[region.State]
		if !ok {
			state, err = locations.CreateState(ctx, &models.CreateStateRequest{Name: region.State})
			if err != nil {
				return added, fmt.Errorf("state %s: %w", region.State, err)
			}
		}

		for _, c := range region.Cities {
			_, err := locations.CreateCity(ctx, &models.CreateCityRequest{
				Name:    c.Name,
				Short:   c.Short,
				StateID: state.ID.String(),
			})
			if errors.Is(err, services.ErrCityExists) {
				continue
			}
			if err != nil {
				return added, fmt.Errorf("city %s: %w", c.Name, err)
			}
			added++
		}
	}
	return added, nil
}

func printCities(cities []*models.City) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("State", "City", "Short", "ID")
	for _, c := range cities {
		if err := table.Append([]string{c.StateName, c.Name, c.Short, c.ID.String()}); err != nil {
			return err
		}
	}
	return table.Render()
}
