// Command forecast runs one forecast from the command line, using the same
// dataset, mappings and model as the web form.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/KaranKumar0402/Commodity-price/internal/config"
	"github.com/KaranKumar0402/Commodity-price/internal/dataset"
	"github.com/KaranKumar0402/Commodity-price/internal/forecast"
	"github.com/KaranKumar0402/Commodity-price/internal/labels"
	"github.com/KaranKumar0402/Commodity-price/internal/logger"
	"github.com/KaranKumar0402/Commodity-price/internal/models"
	"github.com/KaranKumar0402/Commodity-price/internal/report"
	"github.com/KaranKumar0402/Commodity-price/internal/selector"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	state      = flag.String("state", "", "State")
	district   = flag.String("district", "", "District")
	market     = flag.String("market", "", "Market")
	commodity  = flag.String("commodity", "", "Commodity")
	variety    = flag.String("variety", "", "Variety")
	date       = flag.String("date", time.Now().Format("2006-01-02"), "Date (YYYY-MM-DD)")
	arrival    = flag.Float64("arrival", models.MinArrival, "Arrival in tonnes")
	minPrice   = flag.Float64("min", models.MinPriceLo, "Minimum price (Rs/Quintal)")
	maxPrice   = flag.Float64("max", models.MaxPriceLo, "Maximum price (Rs/Quintal)")
	chartPath  = flag.String("chart", "", "Write the price history chart (SVG) to this file")
	xlsxPath   = flag.String("xlsx", "", "Write the price history workbook to this file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.InitWriter(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	if err := run(cfg); err != nil {
		logger.Fatal("%v", err)
	}
}

func run(cfg *config.Config) error {
	d, err := time.Parse("2006-01-02", *date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}
	sel := models.Selection{
		State:     *state,
		District:  *district,
		Market:    *market,
		Commodity: *commodity,
		Variety:   *variety,
		Date:      d,
	}
	in := models.Inputs{Arrival: *arrival, MinPrice: *minPrice, MaxPrice: *maxPrice}
	if err := in.Validate(); err != nil {
		return err
	}

	table, err := dataset.NewLoader(dataset.NewFetcher(cfg.Dataset.Timeout)).Load(context.Background(), cfg.Dataset.URL)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	set, err := labels.Load(cfg.Artifacts.LabelMap, cfg.Artifacts.Mappings)
	if err != nil {
		return fmt.Errorf("failed to load label mappings: %w", err)
	}
	var modelLoader forecast.Loader
	model, err := modelLoader.Load(cfg.Artifacts.Model)
	if err != nil {
		return err
	}

	resolved, stages := selector.Resolve(sel, set, table)
	if stages.Err != nil {
		return fmt.Errorf("mappings do not match the dataset: %w", stages.Err)
	}
	if missing := resolved.Missing(); missing != "" {
		return fmt.Errorf("%w: choose a %s from %v", selector.ErrIncomplete, missing, optionsFor(missing, stages))
	}

	vec, err := selector.Assemble(resolved, in, set)
	if err != nil {
		var mismatch *labels.MismatchError
		if errors.As(err, &mismatch) {
			return fmt.Errorf("mappings do not match the dataset: %w", err)
		}
		return err
	}

	rep := report.Prepare(table, resolved.State, resolved.District, resolved.Market, resolved.Commodity)
	price := model.Predict(vec)

	fmt.Printf("%s (%s) at %s, %s, %s on %s\n",
		resolved.Commodity, resolved.Variety, resolved.Market, resolved.District, resolved.State, *date)
	fmt.Printf("Predicted modal price: Rs %s per quintal\n", humanize.FormatFloat("#,###.##", price))
	if rep.HasHistory {
		fmt.Printf("Average arrival over the last %d days: %.2f tonnes (%d records)\n",
			report.TrailingWindow, rep.AvgArrival, len(rep.Series))
	} else {
		fmt.Println("No price history for this market")
	}
	if msg := report.Classify(in.Arrival, rep).Message(); msg != "" {
		fmt.Println(msg)
	}

	if *chartPath != "" {
		if err := writeFile(*chartPath, func(f *os.File) error { return report.RenderChart(f, rep) }); err != nil {
			return err
		}
	}
	if *xlsxPath != "" {
		if err := writeFile(*xlsxPath, func(f *os.File) error { return report.WriteWorkbook(f, rep) }); err != nil {
			return err
		}
	}
	return nil
}

func optionsFor(stage string, st selector.Stages) []string {
	switch stage {
	case "state":
		return st.States
	case "district":
		return st.Districts
	case "market":
		return st.Markets
	case "commodity":
		return st.Commodities
	case "variety":
		return st.Varieties
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logger.Info("Wrote %s", path)
	return nil
}
