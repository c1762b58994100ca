// twinsim drives the twin backend from the command line: it seeds the
// mixer thing, sets individual properties, ramps a property across a
// range, or replays recorded sensor data from a CSV file. Useful for
// exercising twinctl without real hardware.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/ditto"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/logger"
	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/twin"
	"github.com/spf13/pflag"
)

const usage = `Usage: twinsim [flags] <command> [args]

Commands:
  check                      create the mixer thing if it does not exist
  temperature <value>        set Mixer/Temperature
  rpm <value>                set Mixer/RPM
  flow <value>               set Flow/FlowRate
  alarm <status>             set Alarm/alarm_status (NORMAL, ACTIVE, ACKNOWLEDGED)
  ramp <property> <from> <to>  ramp a Mixer property in steps
  replay <file.csv>          replay feature,property,value rows

Flags:
`

type options struct {
	url      string
	thingID  string
	username string
	password string
	step     float64
	interval time.Duration
	debug    bool
}

func main() {
	opts := options{}

	flags := pflag.NewFlagSet("twinsim", pflag.ExitOnError)
	flags.StringVar(&opts.url, "url", "http://localhost:8080", "Ditto base URL")
	flags.StringVar(&opts.thingID, "thing", "org.eclipse.ditto:Mixer", "Thing ID")
	flags.StringVar(&opts.username, "username", "ditto", "Ditto username")
	flags.StringVar(&opts.password, "password", "ditto", "Ditto password")
	flags.Float64Var(&opts.step, "step", 1, "Step size for ramp")
	flags.DurationVar(&opts.interval, "interval", time.Second, "Delay between updates")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	logger.Init(opts.debug, false, false)

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(1)
	}

	client, err := ditto.NewClient(ditto.Config{
		BaseURL:  opts.url,
		ThingID:  opts.thingID,
		Username: opts.username,
		Password: opts.password,
	}, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid backend configuration")
	}

	ctx := context.Background()

	if err := run(ctx, client, opts, args); err != nil {
		logger.Fatal().Err(err).Str("command", args[0]).Msg("twinsim failed")
	}
}

func run(ctx context.Context, client *ditto.Client, opts options, args []string) error {
	switch cmd := args[0]; cmd {
	case "check":
		return client.EnsureThing(ctx, twin.Seed(opts.thingID))
	case "temperature":
		return setNumber(ctx, client, twin.FeatureMixer, twin.PropTemperature, args)
	case "rpm":
		return setNumber(ctx, client, twin.FeatureMixer, twin.PropRPM, args)
	case "flow":
		return setNumber(ctx, client, twin.FeatureFlow, twin.PropFlowRate, args)
	case "alarm":
		if len(args) < 2 {
			return fmt.Errorf("alarm requires a status argument")
		}
		return client.WriteProperty(ctx, twin.FeatureAlarm, twin.PropAlarmStatus, args[1])
	case "ramp":
		return ramp(ctx, client, opts, args)
	case "replay":
		if len(args) < 2 {
			return fmt.Errorf("replay requires a CSV file argument")
		}
		return replay(ctx, client, opts, args[1])
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func setNumber(ctx context.Context, client *ditto.Client, feature, property string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%s requires a value argument", args[0])
	}

	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}

	if err := client.WriteProperty(ctx, feature, property, value); err != nil {
		return err
	}

	logger.Info().Str("feature", feature).Str("property", property).
		Float64("value", value).Msg("Property updated")

	return nil
}

// ramp walks a Mixer property from one value to another in fixed steps,
// pausing between writes, the way a slow physical process would look to
// the poller
func ramp(ctx context.Context, client *ditto.Client, opts options, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("ramp requires property, from and to arguments")
	}

	property := args[1]
	from, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid from value %q: %w", args[2], err)
	}
	to, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid to value %q: %w", args[3], err)
	}

	step := opts.step
	if step <= 0 {
		step = 1
	}
	if from > to {
		step = -step
	}

	for value := from; (step > 0 && value <= to) || (step < 0 && value >= to); value += step {
		if err := client.WriteProperty(ctx, twin.FeatureMixer, property, value); err != nil {
			return err
		}
		logger.Info().Str("property", property).Float64("value", value).Msg("Property updated")
		time.Sleep(opts.interval)
	}

	return nil
}

// replay reads feature,property,value rows (header optional) and writes
// them to the backend in order
func replay(ctx context.Context, client *ditto.Client, opts options, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	sent := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if len(record) < 3 {
			continue
		}
		if record[0] == "feature" {
			continue // header row
		}

		feature, property := record[0], record[1]

		// Numeric values go out as numbers, everything else as strings
		var value any = record[2]
		if parsed, err := strconv.ParseFloat(record[2], 64); err == nil {
			value = parsed
		}

		if err := client.WriteProperty(ctx, feature, property, value); err != nil {
			logger.Warn().Err(err).Str("feature", feature).Str("property", property).
				Msg("Update failed, continuing")
		} else {
			sent++
		}

		time.Sleep(opts.interval)
	}

	logger.Info().Int("updates", sent).Str("file", path).Msg("Replay finished")

	return nil
}
