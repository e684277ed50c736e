// Command update_sec_data refreshes tracked companies from their latest SEC
// filings and reports data status/quality.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"energy_ic_copilot/pkg/core/config"
	"energy_ic_copilot/pkg/core/datamgr"
	"energy_ic_copilot/pkg/core/extract"
	"energy_ic_copilot/pkg/core/store"
)

func main() {
	godotenv.Load()

	var (
		ticker  = flag.String("ticker", "", "update a single company")
		all     = flag.Bool("all", false, "update every tracked company")
		force   = flag.Bool("force", false, "update even if data is current")
		status  = flag.Bool("status", false, "print data status and exit")
		quality = flag.String("quality", "", "run a data quality check for a ticker")
	)
	flag.Parse()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("[FATAL] Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	companies, err := config.LoadCompanies(filepath.Join(dataDir, "companies.yaml"))
	if err != nil {
		fmt.Printf("[FATAL] Failed to load companies: %v\n", err)
		os.Exit(1)
	}

	var extractor *extract.Extractor
	if e, err := extract.NewExtractorFromFile(filepath.Join(dataDir, "mappings.yaml"), logger); err != nil {
		fmt.Printf("[WARNING] KPI mappings unavailable: %v\n", err)
	} else {
		extractor = e
	}

	manager, err := datamgr.NewManager(datamgr.Options{
		DataDir:   dataDir,
		UserAgent: os.Getenv("SEC_USER_AGENT"),
		Companies: companies,
		Extractor: extractor,
		Snapshots: store.NewSnapshotStore(nil, filepath.Join(dataDir, "snapshots")),
		Logger:    logger,
	})
	if err != nil {
		fmt.Printf("[FATAL] Failed to initialize data manager: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch {
	case *status:
		printStatus(manager)
	case *quality != "":
		printQuality(manager.ValidateDataQuality(ctx, *quality))
	case *ticker != "":
		printResult(manager.UpdateCompanyData(ctx, *ticker, *force))
	case *all:
		failures := 0
		for _, result := range manager.UpdateAll(ctx, *force) {
			printResult(result)
			if !result.Success {
				failures++
			}
		}
		if failures > 0 {
			fmt.Printf("[DONE] Completed with %d failure(s)\n", failures)
			os.Exit(1)
		}
		fmt.Println("[DONE] All companies updated")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printResult(r datamgr.UpdateResult) {
	if r.Success {
		fmt.Printf("[OK] %s: filing %s, %d metrics extracted", r.Ticker, r.FilingDate, r.MetricsExtracted)
		if r.ErrorMessage != "" {
			fmt.Printf(" (%s)", r.ErrorMessage)
		}
		fmt.Println()
		return
	}
	fmt.Printf("[FAIL] %s: %s\n", r.Ticker, r.ErrorMessage)
}

func printStatus(manager *datamgr.Manager) {
	status := manager.Status()
	fmt.Printf("Total companies: %d\n", status.TotalCompanies)
	fmt.Printf("Companies with data: %d\n", status.CompaniesWithData)

	tickers := make([]string, 0, len(status.Companies))
	for ticker := range status.Companies {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		cs := status.Companies[ticker]
		if !cs.HasData {
			fmt.Printf("  %-6s no data (needs update)\n", ticker)
			continue
		}
		marker := ""
		if cs.NeedsUpdate {
			marker = " (needs update)"
		}
		fmt.Printf("  %-6s %s filed %s, updated %dd ago, quality %s%s\n",
			ticker, cs.FormType, cs.FilingDate, cs.DaysSinceUpdate, cs.DataQuality, marker)
	}
}

func printQuality(report datamgr.QualityReport) {
	fmt.Printf("Ticker: %s\n", report.Ticker)
	fmt.Printf("Overall quality: %s\n", report.OverallQuality)
	for name, value := range report.Metrics {
		fmt.Printf("  %s: %d\n", name, value)
	}
	for _, issue := range report.Issues {
		fmt.Printf("  [ISSUE] %s\n", issue)
	}
}
