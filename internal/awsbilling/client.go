package awsbilling

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

// dateFormat is the layout Cost Explorer uses for time period boundaries.
const dateFormat = "2006-01-02"

// CostGroup is one grouped daily cost tuple from the billing source.
// Team is the raw cost-allocation tag value; empty means untagged spend.
type CostGroup struct {
	Date    time.Time
	Team    string
	Service string
	Amount  float64
}

// api is the slice of the Cost Explorer client used here.
type api interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput,
		optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// Client fetches grouped daily cost reports from AWS Cost Explorer.
type Client struct {
	ce     api
	tagKey string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPI replaces the Cost Explorer API, for tests.
func WithAPI(ce api) ClientOption {
	return func(c *Client) { c.ce = ce }
}

// NewClient creates a Cost Explorer client for the given region. When both
// static credentials are non-empty they are used directly; otherwise the
// default AWS credential chain applies.
func NewClient(ctx context.Context, region, accessKeyID, secretAccessKey, tagKey string, opts ...ClientOption) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKeyID != "" && secretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	c := &Client{
		ce:     costexplorer.NewFromConfig(awsCfg),
		tagKey: tagKey,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// DailyCosts returns daily cost tuples for the inclusive [start, end] day
// range, grouped by the team cost-allocation tag and then by service.
// Cost Explorer treats the end boundary as exclusive, so one day is added.
func (c *Client) DailyCosts(ctx context.Context, start, end time.Time) ([]CostGroup, error) {
	out, err := c.ce.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start.Format(dateFormat)),
			End:   aws.String(end.AddDate(0, 0, 1).Format(dateFormat)),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeTag, Key: aws.String(c.tagKey)},
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying cost and usage: %w", err)
	}

	var groups []CostGroup
	for _, result := range out.ResultsByTime {
		if result.TimePeriod == nil || result.TimePeriod.Start == nil {
			continue
		}
		date, err := time.Parse(dateFormat, *result.TimePeriod.Start)
		if err != nil {
			return nil, fmt.Errorf("parsing result period start: %w", err)
		}

		for _, group := range result.Groups {
			cg, err := c.parseGroup(date, group)
			if err != nil {
				return nil, err
			}
			groups = append(groups, cg)
		}
	}

	return groups, nil
}

// parseGroup extracts the team tag value, service, and amount from one group.
// Tag keys come back as "<tagKey>$<value>"; an empty value means untagged.
func (c *Client) parseGroup(date time.Time, group cetypes.Group) (CostGroup, error) {
	cg := CostGroup{Date: date, Service: "Unknown"}

	tagPrefix := c.tagKey + "$"
	for _, key := range group.Keys {
		if value, ok := strings.CutPrefix(key, tagPrefix); ok {
			cg.Team = value
		} else {
			cg.Service = key
		}
	}

	metric, ok := group.Metrics["UnblendedCost"]
	if !ok || metric.Amount == nil {
		return CostGroup{}, fmt.Errorf("group for %s/%s has no UnblendedCost metric", cg.Team, cg.Service)
	}

	amount, err := strconv.ParseFloat(*metric.Amount, 64)
	if err != nil {
		return CostGroup{}, fmt.Errorf("parsing amount %q: %w", *metric.Amount, err)
	}
	cg.Amount = amount

	return cg, nil
}
