package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/pkg/util"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(false)
		if err != nil {
			return err
		}
		return app.Run()
	},
}

var (
	returnsAssets string
	returnsPeriod string
	returnsEnd    string
)

var returnsCmd = &cobra.Command{
	Use:   "returns",
	Short: "Nominal and real returns with rankings",
	RunE:  runReturns,
}

var (
	signalAsOf  string
	signalStart string
	signalEnd   string
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Debasement signal at a date, or over a range with --start",
	RunE:  runSignal,
}

var (
	datasetSeries string
	datasetStart  string
	datasetEnd    string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Fetch named series with provenance",
	RunE:  runDataset,
}

var commandTimeout time.Duration

func init() {
	rootCmd.PersistentFlags().DurationVar(&commandTimeout, "timeout", 2*time.Minute, "deadline for one-shot commands")
	rootCmd.AddCommand(serveCmd, returnsCmd, signalCmd, datasetCmd)

	returnsCmd.Flags().StringVar(&returnsAssets, "assets", "", "comma-separated asset symbols (default: configured universe)")
	returnsCmd.Flags().StringVar(&returnsPeriod, "period", "", "1Y|3Y|5Y|10Y|ALL (default: configured period)")
	returnsCmd.Flags().StringVar(&returnsEnd, "end", "", "window end date (default: today)")

	signalCmd.Flags().StringVar(&signalAsOf, "as-of", "", "reading date (default: today)")
	signalCmd.Flags().StringVar(&signalStart, "start", "", "range start; switches to a range report")
	signalCmd.Flags().StringVar(&signalEnd, "end", "", "range end (default: today)")

	datasetCmd.Flags().StringVar(&datasetSeries, "series", "CPI,M2,VELOCITY,GDP", "comma-separated series names")
	datasetCmd.Flags().StringVar(&datasetStart, "start", "", "start date (default: one year back)")
	datasetCmd.Flags().StringVar(&datasetEnd, "end", "", "end date (default: today)")
}

func runReturns(cmd *cobra.Command, args []string) error {
	var period models.Period
	if returnsPeriod != "" {
		p, err := models.ParsePeriod(returnsPeriod)
		if err != nil {
			return err
		}
		period = p
	}
	end, err := flagTime("end", returnsEnd)
	if err != nil {
		return err
	}
	return oneShot(cmd, func(ctx context.Context, a analytics) (interface{}, error) {
		return a.GetRealReturns(ctx, util.SplitList(returnsAssets), period, end)
	})
}

func runSignal(cmd *cobra.Command, args []string) error {
	if signalStart != "" {
		start, err := flagTime("start", signalStart)
		if err != nil {
			return err
		}
		end, err := flagTime("end", signalEnd)
		if err != nil {
			return err
		}
		return oneShot(cmd, func(ctx context.Context, a analytics) (interface{}, error) {
			return a.GetSignalRange(ctx, start, end)
		})
	}
	asOf, err := flagTime("as-of", signalAsOf)
	if err != nil {
		return err
	}
	return oneShot(cmd, func(ctx context.Context, a analytics) (interface{}, error) {
		return a.GetSignal(ctx, asOf)
	})
}

func runDataset(cmd *cobra.Command, args []string) error {
	start, err := flagTime("start", datasetStart)
	if err != nil {
		return err
	}
	end, err := flagTime("end", datasetEnd)
	if err != nil {
		return err
	}
	return oneShot(cmd, func(ctx context.Context, a analytics) (interface{}, error) {
		return a.GetDataset(ctx, util.SplitList(datasetSeries), start, end)
	})
}

type analytics interface {
	GetDataset(ctx context.Context, names []string, start, end time.Time) (*models.Dataset, error)
	GetRealReturns(ctx context.Context, assets []string, period models.Period, end time.Time) (*models.ReturnsReport, error)
	GetSignal(ctx context.Context, asOf time.Time) (*models.SignalReport, error)
	GetSignalRange(ctx context.Context, start, end time.Time) (*models.SignalReport, error)
}

// oneShot wires the app, runs fn under the command deadline and prints the result as JSON.
func oneShot(cmd *cobra.Command, fn func(context.Context, analytics) (interface{}, error)) error {
	app, err := buildApp(true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	out, err := fn(ctx, app.Pipeline())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func flagTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, ok := util.ParseTime(v)
	if !ok {
		return time.Time{}, fmt.Errorf("--%s: cannot parse %q, use YYYY-MM-DD", name, v)
	}
	return t, nil
}
