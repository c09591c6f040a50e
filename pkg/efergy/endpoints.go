package efergy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// GraphQuery bounds the timeseries graph calls. FromTime and ToTime are epoch
// seconds, AggPeriod defaults to month and CacheKey is optional.
type GraphQuery struct {
	FromTime  int64
	ToTime    int64
	AggPeriod Period
	CacheKey  string
}

func (q GraphQuery) values(c *Client) url.Values {
	params := url.Values{}
	params.Set("fromTime", strconv.FormatInt(q.FromTime, 10))
	params.Set("toTime", strconv.FormatInt(q.ToTime, 10))
	params.Set("aggPeriod", string(orDefault(q.AggPeriod)))
	params.Set("cacheTTL", c.cacheTTLParam())
	if q.CacheKey != "" {
		params.Set("cacheKey", q.CacheKey)
	}
	return params
}

// ReadingOptions narrows a Reading call. Period applies to energy and cost,
// SID selects a single sensor from the current values summary.
type ReadingOptions struct {
	Period Period
	SID    *int
}

// CurrentValues returns the latest value of every sensor on the account.
func (c *Client) CurrentValues(ctx context.Context) ([]Sensor, error) {
	var sensors []Sensor
	if err := c.requestInto(ctx, "getCurrentValuesSummary", nil, &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

// FetchSids fetches the current values summary and stores the sensor ids in
// reported order. The result is readable through Sids.
func (c *Client) FetchSids(ctx context.Context) error {
	sensors, err := c.CurrentValues(ctx)
	if err != nil {
		return err
	}
	sids := make([]int, 0, len(sensors))
	for _, sensor := range sensors {
		sid, err := strconv.Atoi(sensor.SID)
		if err != nil {
			return fmt.Errorf("parse sid %q: %w", sensor.SID, err)
		}
		sids = append(sids, sid)
	}
	c.mu.Lock()
	c.sids = sids
	c.mu.Unlock()
	return nil
}

// Reading fetches one value by reading type. Instant returns the current watt
// draw, energy and cost the period total, budget the budget status, and
// current values either a single sensor value (opts.SID set) or a map keyed
// by sensor id. Energy and cost types match by substring so callers can key
// them by period ("energy_week").
func (c *Client) Reading(ctx context.Context, readingType ReadingType, opts *ReadingOptions) (any, error) {
	if opts == nil {
		opts = &ReadingOptions{}
	}
	period := orDefault(opts.Period)

	var command, field string
	params := url.Values{}
	switch {
	case readingType == ReadingInstant:
		command, field = "getInstant", "reading"
	case strings.Contains(string(readingType), "energy"):
		command, field = "getEnergy", "sum"
		params.Set("period", string(period))
	case strings.Contains(string(readingType), "cost"):
		command, field = "getCost", "sum"
		params.Set("period", string(period))
	case readingType == ReadingBudget:
		command, field = "getBudget", "status"
	case readingType == ReadingCurrentValues:
		sensors, err := c.CurrentValues(ctx)
		if err != nil {
			return nil, err
		}
		readings := map[string]any{}
		for _, sensor := range sensors {
			if opts.SID != nil && strconv.Itoa(*opts.SID) == sensor.SID {
				return sensor.Value(), nil
			}
			readings[sensor.SID] = sensor.Value()
		}
		return readings, nil
	default:
		return nil, fmt.Errorf("unknown reading type %q", readingType)
	}

	data, err := c.requestObject(ctx, command, params)
	if err != nil {
		return nil, err
	}
	if configured := c.Info().Currency; configured != "" && strings.Contains(string(readingType), "cost") {
		if units, ok := data["units"].(string); ok && units != configured {
			logrus.Debug("configured currency does not match device settings, cost statistics may be off")
		}
	}
	return data[field], nil
}

// CreateSimpleTariff creates and applies a flat tariff from a pence per kWh
// value.
func (c *Client) CreateSimpleTariff(ctx context.Context, costPerKWH float64) (map[string]any, error) {
	params := url.Values{}
	params.Set("cost_per_kwh", strconv.FormatFloat(costPerKWH, 'f', -1, 64))
	return c.requestObject(ctx, "createHidSimpleTariff", params)
}

// Carbon returns the carbon generated to meet the household usage over a
// period. Zero from and to times mean the current period.
func (c *Client) Carbon(ctx context.Context, period Period, fromTime, toTime int64) (map[string]any, error) {
	params := url.Values{}
	params.Set("period", string(orDefault(period)))
	params.Set("fromTime", strconv.FormatInt(fromTime, 10))
	params.Set("toTime", strconv.FormatInt(toTime, 10))
	return c.requestObject(ctx, "getCarbon", params)
}

// ChannelAggregated returns a timeseries of aggregated devices on a channel.
// typeName selects the channel type, aggFunc defaults to sum.
func (c *Client) ChannelAggregated(ctx context.Context, query GraphQuery, typeName, aggFunc string) (map[string]any, error) {
	if aggFunc == "" {
		aggFunc = AggFuncSum
	}
	params := query.values(c)
	if typeName != "" {
		params.Set("type", typeName)
	}
	params.Set("aggFunc", aggFunc)
	return c.requestObject(ctx, "getChannelAggregated", params)
}

// CompCombined compares the household against all others for day, week and
// month in one call.
func (c *Client) CompCombined(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getCompCombined", nil)
}

// CompDay compares the household against all others over a day.
func (c *Client) CompDay(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getCompDay", nil)
}

// CompWeek compares the household against all others over a week.
func (c *Client) CompWeek(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getCompWeek", nil)
}

// CompMonth compares the household against all others over a month.
func (c *Client) CompMonth(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getCompMonth", nil)
}

// CompYear compares the household against all others over a year.
func (c *Client) CompYear(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getCompYear", nil)
}

// ConsumptionCO2Graph returns a timeseries of consumption cost and CO2.
func (c *Client) ConsumptionCO2Graph(ctx context.Context, query GraphQuery) (map[string]any, error) {
	return c.requestObject(ctx, "getConsumptionCostCO2Graph", query.values(c))
}

// GeneratedConsumptionImport returns the proportion of consumed power
// generated at home versus imported. Needs PWER and PWER_GAC channels.
func (c *Client) GeneratedConsumptionImport(ctx context.Context, query GraphQuery) (map[string]float64, error) {
	return c.dataProportions(ctx, "getConsumptionGeneratedAndImport", query)
}

// GeneratedConsumptionExport returns the proportion of generated power used
// at home versus exported. Needs PWER and PWER_GAC channels.
func (c *Client) GeneratedConsumptionExport(ctx context.Context, query GraphQuery) (map[string]float64, error) {
	return c.dataProportions(ctx, "getGeneratedConsumptionAndExport", query)
}

func (c *Client) dataProportions(ctx context.Context, command string, query GraphQuery) (map[string]float64, error) {
	params := query.values(c)
	params.Del("aggPeriod")
	var out struct {
		Data map[string]float64 `json:"data"`
	}
	if err := c.requestInto(ctx, command, params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CountryList returns the known countries with their mains voltage.
func (c *Client) CountryList(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getCountryList", nil)
}

// Day returns consumption for the previous 24 hours at minute resolution.
// previousPeriod shifts the window back that many periods.
func (c *Client) Day(ctx context.Context, previousPeriod int, cache bool) (map[string]any, error) {
	params := url.Values{}
	params.Set("getPreviousPeriod", strconv.Itoa(previousPeriod))
	params.Set("cache", strconv.FormatBool(cache))
	return c.dataField(ctx, "getDay", params)
}

// Week returns consumption for the previous week at hour resolution.
func (c *Client) Week(ctx context.Context, previousPeriod int, cache bool, dataType DataType) (map[string]any, error) {
	params := url.Values{}
	params.Set("getPreviousPeriod", strconv.Itoa(previousPeriod))
	params.Set("cache", strconv.FormatBool(cache))
	params.Set("dataType", string(orDefaultType(dataType)))
	return c.dataField(ctx, "getWeek", params)
}

// Month returns consumption for the previous month at day resolution.
func (c *Client) Month(ctx context.Context, previousPeriod int, cache bool, dataType DataType) (map[string]any, error) {
	params := url.Values{}
	params.Set("getPreviousPeriod", strconv.Itoa(previousPeriod))
	params.Set("cache", strconv.FormatBool(cache))
	params.Set("dataType", string(orDefaultType(dataType)))
	return c.dataField(ctx, "getMonth", params)
}

// Year returns consumption for the previous year at month resolution.
func (c *Client) Year(ctx context.Context, cache bool, dataType DataType) (map[string]any, error) {
	params := url.Values{}
	params.Set("cache", strconv.FormatBool(cache))
	params.Set("dataType", string(orDefaultType(dataType)))
	return c.dataField(ctx, "getYear", params)
}

func (c *Client) dataField(ctx context.Context, command string, params url.Values) (map[string]any, error) {
	data, err := c.requestObject(ctx, command, params)
	if err != nil {
		return nil, err
	}
	inner, _ := data["data"].(map[string]any)
	return inner, nil
}

// EstimatedCombined returns estimated usage for the current day and month.
func (c *Client) EstimatedCombined(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getEstCombined", nil)
}

// FirstData returns the time of the first recorded data point in UTC.
func (c *Client) FirstData(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getFirstData", nil)
}

// Forecast returns the consumption, greenhouse gas or cost forecast for a
// period. Cost requires a tariff.
func (c *Client) Forecast(ctx context.Context, period Period) (map[string]any, error) {
	params := url.Values{}
	params.Set("period", string(orDefault(period)))
	return c.requestObject(ctx, "getForecast", params)
}

// GeneratedEnergyRevenueCarbon returns a timeseries of consumed energy,
// revenue and CO2 saved.
func (c *Client) GeneratedEnergyRevenueCarbon(ctx context.Context, query GraphQuery) (map[string]any, error) {
	return c.requestObject(ctx, "getGeneratedEnergyRevenueCarbon", query.values(c))
}

// GenerationConsumptionGraph returns a timeseries of consumed, generated,
// exported and imported power. Needs PWER and PWER_GAC channels.
func (c *Client) GenerationConsumptionGraph(ctx context.Context, query GraphQuery) (map[string]any, error) {
	return c.requestObject(ctx, "getGenerationConsumptionGraph", query.values(c))
}

// GenerationConsumptionGraphCostRevenue is GenerationConsumptionGraph in
// costs and revenue.
func (c *Client) GenerationConsumptionGraphCostRevenue(ctx context.Context, query GraphQuery) (map[string]any, error) {
	return c.requestObject(ctx, "getGenerationConsumptionGraphCostRevenue", query.values(c))
}

// HistoricalValues returns raw historical values for a channel type, PWER by
// default.
func (c *Client) HistoricalValues(ctx context.Context, period Period, typeName string) (map[string]any, error) {
	if typeName == "" {
		typeName = "PWER"
	}
	params := url.Values{}
	params.Set("period", string(orDefault(period)))
	params.Set("type", typeName)
	return c.requestObject(ctx, "getHV", params)
}

// Household returns the configured household attributes.
func (c *Client) Household(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getHousehold", nil)
}

// HouseholdDataReference returns the allowed values for household attributes.
func (c *Client) HouseholdDataReference(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getHouseholdDataReference", nil)
}

// MAC returns the list of hub MAC addresses registered to the account.
func (c *Client) MAC(ctx context.Context) (map[string]any, error) {
	return c.requestObject(ctx, "getMAC", nil)
}

// MACStatus returns the device status for one MAC address.
func (c *Client) MACStatus(ctx context.Context, mac string) (map[string]any, error) {
	params := url.Values{}
	params.Set("mac_address", mac)
	return c.requestObject(ctx, "getMACStatus", params)
}

// Pulse returns the pulse rate for an IR clamp sensor.
func (c *Client) Pulse(ctx context.Context, sid int) (map[string]any, error) {
	params := url.Values{}
	params.Set("sid", strconv.Itoa(sid))
	return c.requestObject(ctx, "getPulse", params)
}

// Status returns the hub status and records the account metadata from the
// first listed hub, readable through Info. With fetchSids it also refreshes
// the sensor id list.
func (c *Client) Status(ctx context.Context, fetchSids bool) (map[string]any, error) {
	body, err := c.request(ctx, "getStatus", nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, &DataError{Payload: body}
	}

	var status struct {
		HID        string `json:"hid"`
		ListOfMACs []struct {
			MAC     string `json:"mac"`
			Status  string `json:"status"`
			Type    string `json:"type"`
			Version string `json:"version"`
		} `json:"listOfMacs"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &DataError{Payload: body}
	}
	if len(status.ListOfMACs) == 0 {
		return nil, &DataError{Payload: body}
	}

	c.mu.Lock()
	c.info.HID = status.HID
	c.info.MAC = status.ListOfMACs[0].MAC
	c.info.Status = status.ListOfMACs[0].Status
	c.info.Type = status.ListOfMACs[0].Type
	c.info.Version = status.ListOfMACs[0].Version
	c.mu.Unlock()

	if fetchSids {
		if err := c.FetchSids(ctx); err != nil {
			return nil, err
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DataError{Payload: body}
	}
	return raw, nil
}

// Tariff returns the tariff structures for the account.
func (c *Client) Tariff(ctx context.Context) ([]map[string]any, error) {
	var tariffs []map[string]any
	if err := c.requestInto(ctx, "getTariff", nil, &tariffs); err != nil {
		return nil, err
	}
	return tariffs, nil
}

// TimeSeries returns consumption between two epoch timestamps aggregated by
// period.
func (c *Client) TimeSeries(ctx context.Context, fromTime, toTime int64, aggPeriod Period, aggFunc string, cache bool, dataType DataType) (map[string]any, error) {
	if aggFunc == "" {
		aggFunc = AggFuncSum
	}
	params := url.Values{}
	params.Set("fromTime", strconv.FormatInt(fromTime, 10))
	params.Set("toTime", strconv.FormatInt(toTime, 10))
	params.Set("aggPeriod", string(orDefault(aggPeriod)))
	params.Set("aggFunc", aggFunc)
	params.Set("cache", strconv.FormatBool(cache))
	params.Set("dataType", string(orDefaultType(dataType)))
	return c.requestObject(ctx, "getTimeSeries", params)
}

// Weather returns the current weather for a city. Timestamp is optional.
func (c *Client) Weather(ctx context.Context, city, country, timestamp string) (map[string]any, error) {
	params := url.Values{}
	params.Set("city", city)
	params.Set("country", country)
	if timestamp != "" {
		params.Set("timestamp", timestamp)
	}
	return c.requestObject(ctx, "getWeather", params)
}

// SetBudget sets the monthly budget for the account.
func (c *Client) SetBudget(ctx context.Context, budget float64) (map[string]any, error) {
	params := url.Values{}
	params.Set("budget", strconv.FormatFloat(budget, 'f', -1, 64))
	return c.requestObject(ctx, "setBudget", params)
}
