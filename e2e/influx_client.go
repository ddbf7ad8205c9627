package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// stepReader reads back what the influx sink wrote during a run. It also
// prepares the bucket so the sink can write into a fresh container.
type stepReader struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

func newStepReader(url, org, bucket, token string) *stepReader {
	c := influxdb2.NewClient(url, token)
	return &stepReader{org: org, bucket: bucket, client: c, query: c.QueryAPI(org)}
}

// ensureBucket creates the organisation and bucket when missing.
func (r *stepReader) ensureBucket(ctx context.Context) error {
	orgAPI := r.client.OrganizationsAPI()
	org, err := orgAPI.FindOrganizationByName(ctx, r.org)
	if err != nil || org == nil {
		if org, err = orgAPI.CreateOrganizationWithName(ctx, r.org); err != nil {
			return fmt.Errorf("create org: %w", err)
		}
	}
	bucketAPI := r.client.BucketsAPI()
	if b, err := bucketAPI.FindBucketByName(ctx, r.bucket); err == nil && b != nil {
		return nil
	}
	if _, err := bucketAPI.CreateBucketWithName(ctx, org, r.bucket); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// countSteps returns the number of points per field written for runID in
// the given measurement.
func (r *stepReader) countSteps(ctx context.Context, measurement, runID string) (map[string]int, error) {
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start: 0) |> filter(fn: (r) => r._measurement == %q and r.run_id == %q)`,
		r.bucket, measurement, runID)
	res, err := r.query.Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	counts := map[string]int{}
	for res.Next() {
		counts[res.Record().Field()]++
	}
	return counts, res.Err()
}

func (r *stepReader) close() { r.client.Close() }
