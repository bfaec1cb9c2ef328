package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"StockSense/internal/collector"
	"StockSense/internal/model"
	"StockSense/internal/notifier"
	"StockSense/internal/service"
)

func newAnalyzeCmd(cfgPath *string) *cobra.Command {
	var (
		file      string
		timeframe string
		report    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [symbol]",
		Short: "Analyze one symbol and print the result",
		Long: `Fetch bars for a symbol from the configured data source and analyze them,
or analyze a chart payload saved to a file with --file.`,
		Example: `  stocksense analyze INFY
  stocksense analyze --file chart.json
  stocksense analyze RELIANCE --file chart.json --timeframe 5m --report`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && len(args) == 0 {
				return fmt.Errorf("a symbol or --file is required")
			}
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			a := newApp(cfg)
			defer a.Close()

			timeout := 60*time.Second + cfg.Narrative.Timeout
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var symbol string
			if len(args) == 1 {
				symbol = args[0]
			}

			var res *model.AnalysisResult
			if file != "" {
				res, err = analyzeFile(ctx, a.service, file, symbol, timeframe)
			} else {
				res, err = a.service.AnalyzeSymbol(ctx, symbol, service.SourceCLI)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report {
				fmt.Fprintln(out, notifier.FormatAnalysisReport(res))
				return nil
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "analyze a chart JSON payload instead of fetching")
	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "timeframe label for --file payloads")
	cmd.Flags().BoolVar(&report, "report", false, "print the text report instead of JSON")
	return cmd
}

// analyzeFile reads a chart payload in the POST /api/analyze shape, or a bare
// candle array. The symbol argument overrides the payload's symbol.
func analyzeFile(ctx context.Context, svc *service.Service, path, symbol, timeframe string) (*model.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart file: %w", err)
	}
	bars, err := collector.ParseChartData(data)
	if err != nil {
		return nil, fmt.Errorf("parse chart file: %w", err)
	}

	root := gjson.ParseBytes(data)
	if symbol == "" {
		symbol = root.Get("symbol").String()
	}
	if timeframe == "" {
		timeframe = root.Get("timeframe").String()
	}
	fundamentals, err := collector.ParseFundamentals(root.Get("fundamentals"))
	if err != nil {
		return nil, fmt.Errorf("parse chart file: %w", err)
	}

	series, err := model.NewSeries(strings.ToUpper(strings.TrimSpace(symbol)), bars)
	if err != nil {
		return nil, fmt.Errorf("build series: %w", err)
	}
	return svc.AnalyzeSeries(ctx, series, timeframe, fundamentals, service.SourceCLI)
}
