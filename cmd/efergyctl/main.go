package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tkdrob/goefergy/pkg/efergy"
	"github.com/tkdrob/goefergy/pkg/version"
)

var (
	token        = flag.String("token", "", "api token, falls back to EFERGY_TOKEN")
	readingType  = flag.String("reading", "instant_readings", "instant_readings, energy, cost, budget or current_values")
	period       = flag.String("period", "", "day, week, month or year")
	sid          = flag.Int("sid", -1, "limit current_values to one sensor id")
	offset       = flag.String("offset", "", "utc offset in minutes or an iana zone name")
	currencyCode = flag.String("currency", "", "iso 4217 currency code")
	alt          = flag.Bool("alt", false, "use the energyhive host")
	showVersion  = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Version)
		return
	}

	apiKey := *token
	if apiKey == "" {
		apiKey = os.Getenv("EFERGY_TOKEN")
	}

	opts := &efergy.Options{
		Alternate: alt,
		UTCOffset: *offset,
		Currency:  *currencyCode,
	}

	err := efergy.Do(apiKey, opts, func(c *efergy.Client) error {
		readingOpts := &efergy.ReadingOptions{Period: efergy.Period(*period)}
		if *sid >= 0 {
			readingOpts.SID = sid
		}

		value, err := c.Reading(context.Background(), efergy.ReadingType(*readingType), readingOpts)
		if err != nil {
			return err
		}

		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}
