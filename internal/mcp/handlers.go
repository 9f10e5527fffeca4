package mcp

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/experiment"
	"github.com/nvandessel/photolab/internal/export"
	"github.com/nvandessel/photolab/internal/pathutil"
	"github.com/nvandessel/photolab/internal/physics"
	"github.com/nvandessel/photolab/internal/plot"
	"github.com/nvandessel/photolab/internal/ratelimit"
	"github.com/nvandessel/photolab/internal/sweep"
)

// registerTools registers all photolab MCP tools with the server.
func (s *Server) registerTools() error {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolMaterials,
		Description: "List the photocathode materials and their work functions",
	}, s.handleMaterials)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolConfigure,
		Description: "Change experiment parameters (material, wavelength, intensity, voltage, rounds, noise) and the sweep plan",
	}, s.handleConfigure)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolReadout,
		Description: "Show photon energy, maximum kinetic energy, stopping potential and threshold wavelength for the current parameters",
	}, s.handleReadout)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolMeasure,
		Description: "Take one averaged current reading at the applied voltage and record it",
	}, s.handleMeasure)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolSweep,
		Description: "Sweep the applied voltage over a range, recording one reading per step",
	}, s.handleSweep)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolStats,
		Description: "Report data set size, groups, threshold voltage and voltage/current correlation",
	}, s.handleStats)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolClear,
		Description: "Remove every recorded data point",
	}, s.handleClear)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolExport,
		Description: "Write the data set to a CSV file or render the I-V chart as PNG or SVG",
	}, s.handleExport)

	return nil
}

// registerResources registers the data set resources.
func (s *Server) registerResources() error {
	s.server.AddResource(&sdk.Resource{
		URI:         "photolab://dataset/summary",
		Name:        "photolab-dataset-summary",
		Description: "Current experiment parameters and a summary of the recorded data set.",
		MIMEType:    "text/markdown",
	}, s.handleSummaryResource)

	s.server.AddResource(&sdk.Resource{
		URI:         "photolab://dataset/csv",
		Name:        "photolab-dataset-csv",
		Description: "The recorded data set in the CSV export format.",
		MIMEType:    "text/csv",
	}, s.handleCSVResource)

	return nil
}

// handleSummaryResource renders parameters and statistics as markdown.
func (s *Server) handleSummaryResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	stats, err := s.session.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	groups, err := s.session.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to group data set: %w", err)
	}

	p := s.session.Parameters()
	var sb strings.Builder
	sb.WriteString("# Photoelectric Experiment\n\n")
	sb.WriteString("## Parameters\n\n")
	if m, ok := p.Material(); ok {
		fmt.Fprintf(&sb, "- Material: %s, work function %.2f eV\n", m.Name, m.WorkFunctionEv)
	} else {
		sb.WriteString("- Material: none selected\n")
	}
	fmt.Fprintf(&sb, "- Wavelength: %g nm\n", p.WavelengthNm)
	fmt.Fprintf(&sb, "- Intensity: %g μW/cm²\n", p.IntensityUwCm2)
	fmt.Fprintf(&sb, "- Voltage: %g V\n", p.VoltageV)
	fmt.Fprintf(&sb, "- Rounds: %d, noise level %g\n\n", p.MeasurementRounds, p.NoiseLevel)

	sb.WriteString("## Data Set\n\n")
	if stats.Points == 0 {
		sb.WriteString("No data points recorded.\n")
	} else {
		fmt.Fprintf(&sb, "- Points: %d in %d group(s)\n", stats.Points, stats.Groups)
		if stats.ThresholdVoltageV != nil {
			fmt.Fprintf(&sb, "- Threshold voltage: %.3f V\n", *stats.ThresholdVoltageV)
		}
		if stats.Correlation != nil {
			fmt.Fprintf(&sb, "- Correlation: %.4f\n", *stats.Correlation)
		}
		sb.WriteString("\n")
		for _, g := range groups {
			fmt.Fprintf(&sb, "- %s: %d point(s)\n", g.Label, len(g.Points))
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "photolab://dataset/summary",
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// handleCSVResource returns the data set in export format. An empty data set
// yields the header row only.
func (s *Server) handleCSVResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	points, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read data set: %w", err)
	}

	var sb strings.Builder
	if len(points) == 0 {
		sb.WriteString(strings.Join(export.Header, ",") + "\n")
	} else if err := export.Write(&sb, points, s.exportMetadata()); err != nil {
		return nil, err
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "photolab://dataset/csv",
				MIMEType: "text/csv",
				Text:     sb.String(),
			},
		},
	}, nil
}

func (s *Server) handleMaterials(ctx context.Context, req *sdk.CallToolRequest, args MaterialsInput) (_ *sdk.CallToolResult, _ MaterialsOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolMaterials, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolMaterials); err != nil {
		return nil, MaterialsOutput{}, err
	}

	selected := s.session.Parameters().MaterialIndex
	catalog := physics.Catalog()
	items := make([]MaterialItem, 0, len(catalog))
	for i, m := range catalog {
		items = append(items, MaterialItem{
			Index:                 i,
			Name:                  m.Name,
			Symbol:                m.Symbol,
			WorkFunctionEv:        m.WorkFunctionEv,
			ThresholdWavelengthNm: m.ThresholdWavelengthNm(),
			Selected:              i == selected,
		})
	}
	return nil, MaterialsOutput{Materials: items, Count: len(items)}, nil
}

func (s *Server) handleConfigure(ctx context.Context, req *sdk.CallToolRequest, args ConfigureInput) (_ *sdk.CallToolResult, _ ConfigureOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolConfigure, start, retErr, sanitizeToolParams(map[string]any{
			"material": args.Material, "wavelength_nm": args.WavelengthNm,
			"intensity_uw_cm2": args.IntensityUwCm2, "voltage_v": args.VoltageV,
			"measurement_rounds": args.MeasurementRounds, "noise_level": args.NoiseLevel,
			"min_v": args.MinV, "max_v": args.MaxV, "step_v": args.StepV,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolConfigure); err != nil {
		return nil, ConfigureOutput{}, err
	}

	var materialIndex int
	if args.Material != nil {
		q := strings.TrimSpace(*args.Material)
		if q == "" || strings.EqualFold(q, "none") {
			materialIndex = experiment.NoMaterial
		} else {
			idx, _, err := physics.LookupMaterial(q)
			if err != nil {
				return nil, ConfigureOutput{}, err
			}
			materialIndex = idx
		}
	}

	// Validate the plan first so a bad plan leaves the parameters untouched.
	plan := s.session.Plan()
	planChanged := args.MinV != nil || args.MaxV != nil || args.StepV != nil
	if planChanged {
		plan = mergePlan(plan, args.MinV, args.MaxV, args.StepV)
		if err := plan.Validate(); err != nil {
			return nil, ConfigureOutput{}, &experiment.ParameterError{Field: "sweep_plan", Value: plan, Reason: err.Error()}
		}
	}

	params, err := s.session.Update(func(p *experiment.Parameters) {
		if args.Material != nil {
			p.MaterialIndex = materialIndex
		}
		if args.WavelengthNm != nil {
			p.WavelengthNm = *args.WavelengthNm
		}
		if args.IntensityUwCm2 != nil {
			p.IntensityUwCm2 = *args.IntensityUwCm2
		}
		if args.VoltageV != nil {
			p.VoltageV = *args.VoltageV
		}
		if args.MeasurementRounds != nil {
			p.MeasurementRounds = *args.MeasurementRounds
		}
		if args.NoiseLevel != nil {
			p.NoiseLevel = *args.NoiseLevel
		}
	})
	if err != nil {
		return nil, ConfigureOutput{}, err
	}
	if planChanged {
		if err := s.session.SetPlan(plan); err != nil {
			return nil, ConfigureOutput{}, err
		}
	}

	out := ConfigureOutput{
		Parameters: parametersView(params),
		Plan:       s.session.Plan(),
		Message:    "Parameters updated",
	}
	if _, ok := params.Material(); ok {
		r, err := params.Readout()
		if err != nil {
			return nil, ConfigureOutput{}, err
		}
		ro := readoutOutput(r)
		out.Readout = &ro
	} else {
		out.Message = "Parameters updated; select a material before measuring"
	}
	return nil, out, nil
}

func (s *Server) handleReadout(ctx context.Context, req *sdk.CallToolRequest, args ReadoutInput) (_ *sdk.CallToolResult, _ ReadoutOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolReadout, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolReadout); err != nil {
		return nil, ReadoutOutput{}, err
	}

	r, err := s.session.Readout()
	if err != nil {
		return nil, ReadoutOutput{}, err
	}
	return nil, readoutOutput(r), nil
}

func (s *Server) handleMeasure(ctx context.Context, req *sdk.CallToolRequest, args MeasureInput) (_ *sdk.CallToolResult, _ MeasureOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolMeasure, start, retErr, sanitizeToolParams(map[string]any{
			"voltage_v": args.VoltageV,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolMeasure); err != nil {
		return nil, MeasureOutput{}, err
	}

	if args.VoltageV != nil {
		if _, err := s.session.Update(func(p *experiment.Parameters) { p.VoltageV = *args.VoltageV }); err != nil {
			return nil, MeasureOutput{}, err
		}
	}

	dp, err := s.session.Measure(ctx)
	if err != nil {
		return nil, MeasureOutput{}, err
	}
	snap, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, MeasureOutput{}, err
	}
	return nil, MeasureOutput{Point: pointItem(dp), Dataset: len(snap)}, nil
}

func (s *Server) handleSweep(ctx context.Context, req *sdk.CallToolRequest, args SweepInput) (_ *sdk.CallToolResult, _ SweepOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolSweep, start, retErr, sanitizeToolParams(map[string]any{
			"min_v": args.MinV, "max_v": args.MaxV, "step_v": args.StepV,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolSweep); err != nil {
		return nil, SweepOutput{}, err
	}

	plan := mergePlan(s.session.Plan(), args.MinV, args.MaxV, args.StepV)
	res, err := s.session.Sweep(ctx, plan, s.progressNotifier(ctx, req))
	if err != nil {
		return nil, SweepOutput{}, err
	}

	out := SweepOutput{
		Plan:      res.Plan,
		Total:     res.Total,
		Completed: len(res.Points),
		Cancelled: res.Cancelled,
		ElapsedMs: res.Elapsed.Milliseconds(),
	}
	if args.IncludePoints {
		out.Points = make([]PointItem, 0, len(res.Points))
		for _, dp := range res.Points {
			out.Points = append(out.Points, pointItem(dp))
		}
	}
	if res.Cancelled {
		out.Message = fmt.Sprintf("Sweep cancelled after %d of %d steps", out.Completed, out.Total)
	} else {
		out.Message = fmt.Sprintf("Sweep recorded %d points from %g V to %g V", out.Completed, plan.MinV, plan.MaxV)
	}
	return nil, out, nil
}

// progressNotifier forwards sweep progress to the client when the request
// carries a progress token. It returns nil otherwise.
func (s *Server) progressNotifier(ctx context.Context, req *sdk.CallToolRequest) func(sweep.Progress) {
	if req == nil || req.Session == nil || req.Params == nil {
		return nil
	}
	token := req.Params.GetProgressToken()
	if token == nil {
		return nil
	}
	return func(p sweep.Progress) {
		err := req.Session.NotifyProgress(ctx, &sdk.ProgressNotificationParams{
			ProgressToken: token,
			Message:       fmt.Sprintf("%.1f V", p.VoltageV),
			Progress:      float64(p.Index + 1),
			Total:         float64(p.Total),
		})
		if err != nil {
			s.logger.Debug("progress notification failed", "error", err)
		}
	}
}

func (s *Server) handleStats(ctx context.Context, req *sdk.CallToolRequest, args StatsInput) (_ *sdk.CallToolResult, _ StatsOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolStats, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolStats); err != nil {
		return nil, StatsOutput{}, err
	}

	stats, err := s.session.Statistics(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	groups, err := s.session.Groups(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	items := make([]GroupItem, 0, len(groups))
	for _, g := range groups {
		items = append(items, GroupItem{Key: g.Key.String(), Label: g.Label, Points: len(g.Points)})
	}
	return nil, StatsOutput{
		Points:            stats.Points,
		Groups:            items,
		ThresholdVoltageV: stats.ThresholdVoltageV,
		Correlation:       stats.Correlation,
		NoiseLevel:        stats.NoiseLevel,
	}, nil
}

func (s *Server) handleClear(ctx context.Context, req *sdk.CallToolRequest, args ClearInput) (_ *sdk.CallToolResult, _ ClearOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolClear, start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolClear); err != nil {
		return nil, ClearOutput{}, err
	}

	snap, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, ClearOutput{}, err
	}
	if err := s.session.Clear(ctx); err != nil {
		return nil, ClearOutput{}, err
	}
	return nil, ClearOutput{
		Cleared: len(snap),
		Message: fmt.Sprintf("Removed %d data point(s)", len(snap)),
	}, nil
}

func (s *Server) handleExport(ctx context.Context, req *sdk.CallToolRequest, args ExportInput) (_ *sdk.CallToolResult, _ ExportOutput, retErr error) {
	start := s.now()
	defer func() {
		s.auditTool(ratelimit.ToolExport, start, retErr, sanitizeToolParams(map[string]any{
			"path": args.Path, "format": args.Format,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolExport); err != nil {
		return nil, ExportOutput{}, err
	}

	format, err := exportFormat(args.Format, args.Path)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	points, err := s.session.Snapshot(ctx)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	if len(points) == 0 {
		return nil, ExportOutput{}, export.ErrEmptyDataset
	}

	name := args.Path
	if name == "" {
		name = strings.TrimSuffix(export.Filename(s.now()), ".csv") + "." + format
	}
	path := s.exportPath(name)

	if format != "csv" && filepath.Ext(path) == "" {
		path += "." + format
	}
	if s.exportDir != "" {
		if path, err = pathutil.Confine(path, s.exportDir); err != nil {
			return nil, ExportOutput{}, err
		}
	}

	switch format {
	case "csv":
		err = export.WriteFile(path, points, s.exportMetadata())
	default:
		err = plot.RenderFile(path, points, plot.DefaultOptions())
	}
	if err != nil {
		return nil, ExportOutput{}, err
	}

	return nil, ExportOutput{
		Path:    path,
		Format:  format,
		Points:  len(points),
		Message: fmt.Sprintf("Exported %d point(s) to %s", len(points), path),
	}, nil
}

// exportFormat picks the export format from the explicit format or the
// path extension, defaulting to csv.
func exportFormat(format, path string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		f = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	switch f {
	case "", "csv":
		return "csv", nil
	case "png", "svg":
		if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext != "" && ext != f {
			return "", fmt.Errorf("path extension %q does not match format %q", ext, f)
		}
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, png or svg)", f)
	}
}

func (s *Server) exportMetadata() export.Metadata {
	return export.Metadata{
		ExportedAt: s.now(),
		Constants:  physics.StandardConstants(),
		NoiseLevel: s.session.Parameters().NoiseLevel,
	}
}

// mergePlan overrides the fields of base that are set.
func mergePlan(base sweep.Plan, minV, maxV, stepV *float64) sweep.Plan {
	if minV != nil {
		base.MinV = *minV
	}
	if maxV != nil {
		base.MaxV = *maxV
	}
	if stepV != nil {
		base.StepV = *stepV
	}
	return base
}

func parametersView(p experiment.Parameters) ParametersView {
	v := ParametersView{
		MaterialIndex:     p.MaterialIndex,
		WavelengthNm:      p.WavelengthNm,
		IntensityUwCm2:    p.IntensityUwCm2,
		VoltageV:          p.VoltageV,
		MeasurementRounds: p.MeasurementRounds,
		NoiseLevel:        p.NoiseLevel,
	}
	if m, ok := p.Material(); ok {
		v.Material = m.Name
	}
	return v
}

func readoutOutput(r experiment.Readout) ReadoutOutput {
	out := ReadoutOutput{
		Material:              r.Material,
		Symbol:                r.Symbol,
		WorkFunctionEv:        r.WorkFunctionEv,
		ThresholdWavelengthNm: r.ThresholdWavelengthNm,
		WavelengthNm:          r.WavelengthNm,
		Band:                  string(r.Band),
		PhotonEnergyEv:        r.PhotonEnergyEv,
		MaxKineticEnergyEv:    r.MaxKineticEnergyEv,
		StoppingPotentialV:    r.StoppingPotentialV,
		IntensityUwCm2:        r.IntensityUwCm2,
		VoltageV:              r.VoltageV,
		Emits:                 r.Emits,
	}
	if r.Emits {
		out.IdealCurrentNa = r.Emission.CurrentNa(r.VoltageV, r.IntensityUwCm2)
	}
	return out
}

func pointItem(dp dataset.DataPoint) PointItem {
	raw := dp.RawMeasurements
	if raw == nil {
		raw = []float64{}
	}
	return PointItem{
		ID:              dp.ID,
		VoltageV:        dp.VoltageV,
		CurrentNa:       finite(dp.CurrentNa),
		ErrorNa:         finite(dp.ErrorNa),
		WavelengthNm:    dp.WavelengthNm,
		IntensityUwCm2:  dp.IntensityUwCm2,
		Material:        dp.Material,
		Timestamp:       dp.TimestampISO(),
		RawMeasurements: raw,
	}
}

// finite maps NaN and infinities to zero so results stay JSON-encodable.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
