package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/landau/internal/analysis"
	"github.com/san-kum/landau/internal/export"
	"github.com/san-kum/landau/internal/storage"
	"github.com/san-kum/landau/internal/viz"
)

var (
	chartColumns []string
	chartFormat  string
	svgOutput    string
)

// runCommands are the commands that inspect stored runs.
func runCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run diagnostics in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render run diagnostics to a PNG or SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringSliceVar(&chartColumns, "columns", []string{"dissonance", "coherence"}, "diagnostics to draw")
	chartCmd.Flags().StringVar(&chartFormat, "format", "png", "png or svg")
	chartCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run_id>.<format>)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spatial and temporal spectrum of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "scatter the final lattice in the complex plane",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&svgOutput, "svg", "", "also write the scatter as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return []*cobra.Command{listCmd, plotCmd, chartCmd, analyzeCmd, phaseCmd, exportJSONCmd}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tN\tSTEPS\tDT\tSCHEME\tMODE\tDISSONANCE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3g\t%s\t%s\t%.5f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.Steps,
			run.Dt,
			run.Scheme,
			run.Mode,
			run.Final.Dissonance,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("lattice: N=%d %s/%s\n", meta.Size, meta.Scheme, meta.Mode)
	fmt.Printf("samples: %d\n\n", len(series))

	for _, col := range []string{"dissonance", "coherence", "amp_mean"} {
		extract := export.Columns[col]
		data := make([]float64, len(series))
		for i, d := range series {
			data[i] = extract(d)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col+" vs step"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	format, err := export.ParseFormat(chartFormat)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	path := output
	if path == "" {
		path = runID + "." + chartFormat
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.Chart(f, format, runID, series, chartColumns...); err != nil {
		return err
	}
	logger.Info("chart written", "path", path, "columns", strings.Join(chartColumns, ","))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	field, err := st.LoadField(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	fmt.Printf("spectral analysis: %s\n", meta.ID)
	fmt.Printf("lattice: N=%d\n\n", field.N)

	spectrum := analysis.SpatialSpectrum(field)
	if len(spectrum) > 1 {
		graph := asciigraph.Plot(spectrum[1:],
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("radial amplitude spectrum (k ≥ 1)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	if wl := analysis.DominantWavelength(field); wl > 0 {
		fmt.Printf("dominant wavelength: %.2f cells\n", wl)
	} else {
		fmt.Println("dominant wavelength: none (flat amplitude)")
	}

	if len(series) >= 4 {
		diss := make([]float64, len(series))
		for i, d := range series {
			diss[i] = d.Dissonance
		}
		ps := analysis.PowerSpectrum(diss)
		peak := 1
		for i := 2; i < len(ps); i++ {
			if ps[i] > ps[peak] {
				peak = i
			}
		}
		if peak < len(ps) && meta.Dt > 0 {
			freq := float64(peak) / (float64(len(diss)) * meta.Dt)
			fmt.Printf("dissonance oscillation: %.4f cycles per time unit\n", freq)
		}
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	field, err := st.LoadField(runID)
	if err != nil {
		return err
	}

	scatter := analysis.PhaseScatter(field)
	xs := make([]float64, len(scatter.Points))
	ys := make([]float64, len(scatter.Points))
	bound := 0.0
	for i, p := range scatter.Points {
		xs[i], ys[i] = p.X, p.Y
		bound = max(bound, p.X, -p.X, p.Y, -p.Y)
	}

	canvas := viz.NewCanvas(40, 20)
	canvas.Scatter(xs, ys, bound*1.1)
	fmt.Printf("phase scatter: %s (bound %.3f)\n\n", runID, bound*1.1)
	fmt.Println(canvas.String())

	if svgOutput != "" {
		if err := os.WriteFile(svgOutput, []byte(export.CanvasToSVG(canvas, 4, "#00ffcc")), 0644); err != nil {
			return err
		}
		logger.Info("svg written", "path", svgOutput)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	field, err := st.LoadField(runID)
	if err != nil {
		logger.Warn("field not stored", "run", runID, "err", err)
		field = nil
	}

	data := storage.NewExport(*meta, series, field)
	if output == "" {
		return storage.ExportJSONStdout(data)
	}
	return storage.ExportJSON(output, data)
}
