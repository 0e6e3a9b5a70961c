package irradiance

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-viability/internal/resilience"
)

// Process runs an external simulation binary (typically a pvlib script) that
// prints {"monthly_kwh_per_kwp": [12 numbers]} on stdout.
type Process struct {
	binPath string
	args    []string
}

// NewProcess creates a Process provider. If binPath is empty, "pvsim" is used.
// Extra args are passed before the site flags.
func NewProcess(binPath string, args ...string) *Process {
	if binPath == "" {
		binPath = "pvsim"
	}
	return &Process{binPath: binPath, args: args}
}

// Name implements Provider.
func (p *Process) Name() string { return "irradiance.process" }

type processOutput struct {
	Monthly []float64 `json:"monthly_kwh_per_kwp"`
}

// Simulate runs the binary with the site flags and parses its output.
// The process is killed when ctx is done.
func (p *Process) Simulate(ctx context.Context, req Request) (Yield, error) {
	args := append([]string{}, p.args...)
	args = append(args,
		"--lat", formatFloat(req.Latitude),
		"--lon", formatFloat(req.Longitude),
		"--alt", formatFloat(req.Altitude),
		"--tz", req.Timezone,
		"--tilt", formatFloat(req.Tilt),
		"--azimuth", formatFloat(req.Azimuth),
	)
	cmd := exec.CommandContext(ctx, p.binPath, args...)
	// Children that inherit stdout must not hold Run past cancellation.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Yield{}, eris.Wrap(ctxErr, "irradiance: simulation interrupted")
		}
		return Yield{}, eris.Wrapf(err, "irradiance: %s failed: %s", p.binPath, stderr.String())
	}

	var out processOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Yield{}, eris.Wrapf(resilience.ErrMalformed, "irradiance: decode %s output: %v", p.binPath, err)
	}
	if len(out.Monthly) != 12 {
		return Yield{}, eris.Wrapf(resilience.ErrMalformed, "irradiance: expected 12 monthly values, got %d", len(out.Monthly))
	}

	var y Yield
	copy(y[:], out.Monthly)
	if err := y.Validate(); err != nil {
		return Yield{}, err
	}
	return y, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
