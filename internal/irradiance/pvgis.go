package irradiance

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-viability/internal/resilience"
)

const (
	defaultPVGISBaseURL = "https://re.jrc.ec.europa.eu/api/v5_2"
	defaultRadDatabase  = "PVGIS-SARAH3"
)

// PVGIS queries the EU JRC PVcalc service for a 1 kWp lossless array, which
// yields specific yield directly.
type PVGIS struct {
	baseURL string
	radDB   string
	http    *http.Client
}

// PVGISOption configures the PVGIS provider.
type PVGISOption func(*PVGIS)

// WithPVGISBaseURL sets a custom base URL (for testing).
func WithPVGISBaseURL(u string) PVGISOption {
	return func(p *PVGIS) { p.baseURL = u }
}

// WithRadDatabase selects the radiation database.
func WithRadDatabase(db string) PVGISOption {
	return func(p *PVGIS) { p.radDB = db }
}

// WithPVGISHTTPClient sets a custom HTTP client.
func WithPVGISHTTPClient(hc *http.Client) PVGISOption {
	return func(p *PVGIS) { p.http = hc }
}

// NewPVGIS creates a PVGIS provider.
func NewPVGIS(opts ...PVGISOption) *PVGIS {
	p := &PVGIS{
		baseURL: defaultPVGISBaseURL,
		radDB:   defaultRadDatabase,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *PVGIS) Name() string { return "irradiance.pvgis" }

type pvgisResponse struct {
	Outputs struct {
		Monthly struct {
			Fixed []struct {
				Month int     `json:"month"`
				EM    float64 `json:"E_m"`
			} `json:"fixed"`
		} `json:"monthly"`
	} `json:"outputs"`
}

// Aspect converts a north-based azimuth to PVGIS aspect (0 = south, 90 = west),
// normalized to [-180, 180).
func Aspect(azimuth float64) float64 {
	a := azimuth - 180
	for a < -180 {
		a += 360
	}
	for a >= 180 {
		a -= 360
	}
	return a
}

// Simulate calls PVcalc and returns E_m per month.
func (p *PVGIS) Simulate(ctx context.Context, req Request) (Yield, error) {
	q := url.Values{}
	q.Set("lat", formatFloat(req.Latitude))
	q.Set("lon", formatFloat(req.Longitude))
	q.Set("peakpower", "1")
	q.Set("loss", "0")
	q.Set("angle", formatFloat(req.Tilt))
	q.Set("aspect", formatFloat(Aspect(req.Azimuth)))
	q.Set("raddatabase", p.radDB)
	q.Set("outputformat", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/PVcalc?"+q.Encode(), nil)
	if err != nil {
		return Yield{}, eris.Wrap(err, "irradiance: create pvgis request")
	}

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return Yield{}, eris.Wrap(err, "irradiance: pvgis call")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Yield{}, eris.Wrap(err, "irradiance: read pvgis response")
	}
	if resp.StatusCode != http.StatusOK {
		return Yield{}, eris.Wrap(&resilience.StatusError{StatusCode: resp.StatusCode, Body: string(body)}, "irradiance: pvgis")
	}

	var parsed pvgisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Yield{}, eris.Wrapf(resilience.ErrMalformed, "irradiance: decode pvgis response: %v", err)
	}

	var y Yield
	seen := 0
	for _, m := range parsed.Outputs.Monthly.Fixed {
		if m.Month < 1 || m.Month > 12 {
			return Yield{}, eris.Wrapf(resilience.ErrMalformed, "irradiance: pvgis month %d", m.Month)
		}
		y[m.Month-1] = m.EM
		seen++
	}
	if seen != 12 {
		return Yield{}, eris.Wrapf(resilience.ErrMalformed, "irradiance: pvgis returned %d months", seen)
	}
	if err := y.Validate(); err != nil {
		return Yield{}, err
	}
	return y, nil
}
