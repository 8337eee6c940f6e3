package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chazu/fsmodel/pkg/engine"
	"github.com/chazu/fsmodel/pkg/model"
	"github.com/chazu/fsmodel/pkg/vecmath"
)

func (a *app) runEval(cmd *cobra.Command, args []string) error {
	m, warnings, err := a.evaluate(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if m.Elements().Len() > 0 {
		fmt.Fprintln(out, elementTable(m))
	}
	if m.Couples().Len() > 0 {
		fmt.Fprintln(out, coupleTable(m))
	}
	fmt.Fprintf(out, "%d nodes, %d elements, %d couples\n",
		m.Nodes().Len(), m.Elements().Len(), m.Couples().Len())
	printWarnings(cmd.ErrOrStderr(), warnings)
	return nil
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	m, _, err := a.evaluate(cmd, args[0])
	if err != nil {
		return err
	}

	res := model.Validate(m)
	stderr := cmd.ErrOrStderr()
	for _, d := range res.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", d)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(stderr, "%s\n", e)
	}
	if !res.OK() {
		return fmt.Errorf("%s: %d validation errors", args[0], len(res.Errors))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d warnings)\n", args[0], len(res.Warnings))
	return nil
}

func (a *app) runDump(cmd *cobra.Command, args []string) error {
	m, _, err := a.evaluate(cmd, args[0])
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(m.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func elementTable(m *model.Model) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ELEM", "TYPE", "N1", "N2", "LENGTH", "BEND", "CENTROID")
	for id, e := range m.Elements().All() {
		def := e.Def()
		row := []string{
			strconv.Itoa(int(id)),
			def.Type.String(),
			strconv.Itoa(int(def.N1)),
			strconv.Itoa(int(def.N2)),
		}
		g, err := e.Geometry()
		if err != nil {
			t.Row(append(row, "error", "", err.Error())...)
			continue
		}
		bend := ""
		if g.Bend != nil {
			bend = formatFloat(vecmath.Deg(g.Bend.Angle))
		}
		t.Row(append(row, formatFloat(g.Length), bend, formatVec(g.Centroid))...)
	}
	return t
}

func coupleTable(m *model.Model) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("COUPLE", "N1", "N2", "SPCONST", "I", "J", "K")
	for id, c := range m.Couples().All() {
		def := c.Def()
		row := []string{
			strconv.Itoa(int(id)),
			strconv.Itoa(int(def.N1)),
			strconv.Itoa(int(def.N2)),
			strconv.Itoa(def.SpConst),
		}
		f, err := c.LocalFrame()
		if err != nil {
			t.Row(append(row, "error", "", err.Error())...)
			continue
		}
		t.Row(append(row, formatVec(f.I), formatVec(f.J), formatVec(f.K))...)
	}
	return t
}

func printWarnings(w io.Writer, warnings []engine.EvalWarning) {
	for _, wn := range warnings {
		fmt.Fprintf(w, "warning: %s\n", wn)
	}
}

func formatFloat(v float64) string {
	// Avoid printing -0.
	if math.Abs(v) < 5e-5 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatVec(v vecmath.Vec) string {
	return "(" + formatFloat(v.X) + ", " + formatFloat(v.Y) + ", " + formatFloat(v.Z) + ")"
}
