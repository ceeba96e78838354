// Package report renders the discovered topology for the operator.
package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sugawarayuuta/sonnet"

	"boosttester/topology"
	"boosttester/utils"
)

// CoreView is one physical core as printed.
type CoreView struct {
	Core    int   `json:"core"`
	Threads int   `json:"threads"`
	Unit    int   `json:"unit"`
	Units   []int `json:"units,omitempty"`
}

// View is the JSON shape of a topology model.
type View struct {
	Vendor         string     `json:"vendor"`
	Brand          string     `json:"brand,omitempty"`
	Family         int        `json:"family"`
	BoostHz        int64      `json:"boost_hz,omitempty"`
	PhysicalCores  int        `json:"physical_cores"`
	LogicalCores   int        `json:"logical_cores"`
	NUMANodes      int        `json:"numa_nodes"`
	Packages       int        `json:"packages"`
	L1Caches       int        `json:"l1_caches"`
	L2Caches       int        `json:"l2_caches"`
	L3Caches       int        `json:"l3_caches"`
	HyperThreading bool       `json:"hyperthreading"`
	Asymmetric     bool       `json:"asymmetric"`
	WithExtra      int        `json:"cores_with_extra_thread,omitempty"`
	WithoutExtra   int        `json:"cores_without_extra_thread,omitempty"`
	Selection      string     `json:"selection"`
	Cores          []CoreView `json:"cores"`
	Warnings       []string   `json:"warnings,omitempty"`
}

// NewView flattens m, resolving units with sel.
func NewView(m *topology.Model, sel topology.Selection) View {
	v := View{
		Vendor:         m.Vendor,
		Brand:          strings.TrimSpace(m.Brand),
		Family:         m.Family,
		BoostHz:        m.BoostHz,
		PhysicalCores:  m.PhysicalCores,
		LogicalCores:   m.LogicalCores,
		NUMANodes:      m.NUMANodes,
		Packages:       m.Packages,
		L1Caches:       m.L1Caches,
		L2Caches:       m.L2Caches,
		L3Caches:       m.L3Caches,
		HyperThreading: m.HyperThreading,
		Asymmetric:     m.Asymmetric,
		Selection:      string(sel),
		Cores:          make([]CoreView, 0, len(m.ThreadsPerCore)),
		Warnings:       m.Warnings,
	}
	if m.Asymmetric {
		v.WithExtra = m.CoresWithExtraThread
		v.WithoutExtra = m.CoresWithoutExtraThread
	}
	for c, t := range m.ThreadsPerCore {
		cv := CoreView{Core: c, Threads: t, Unit: m.Unit(c, sel)}
		if c < len(m.Units) {
			cv.Units = m.Units[c]
		}
		v.Cores = append(v.Cores, cv)
	}
	return v
}

// JSON writes the view as a single JSON document followed by a newline.
func JSON(w io.Writer, m *topology.Model, sel topology.Selection) error {
	b, err := sonnet.Marshal(NewView(m, sel))
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinUnits(units []int) string {
	if len(units) == 0 {
		return "-"
	}
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = strconv.Itoa(u)
	}
	return strings.Join(parts, ",")
}

func plain(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// Summary prints the identification and counts as a two-column table.
func Summary(w io.Writer, m *topology.Model) {
	rows := [][]string{
		{"CPU Vendor:", m.Vendor},
		{"Brand:", strings.TrimSpace(m.Brand)},
		{"Family:", utils.Itoa(m.Family)},
		{"Boost clock:", utils.FormatHz(m.BoostHz)},
		{"Physical cores found:", utils.Itoa(m.PhysicalCores)},
		{"Logical cores found:", utils.Itoa(m.LogicalCores)},
		{"Hyperthreading enabled:", yesNo(m.HyperThreading)},
		{"Packages:", utils.Itoa(m.Packages)},
		{"NUMA nodes:", utils.Itoa(m.NUMANodes)},
		{"L1/L2/L3 caches:", utils.Itoa(m.L1Caches) + "/" + utils.Itoa(m.L2Caches) + "/" + utils.Itoa(m.L3Caches)},
	}
	if m.Asymmetric {
		rows = append(rows,
			[]string{"Asymmetrical layout:", "yes"},
			[]string{"Cores with two threads:", utils.Itoa(m.CoresWithExtraThread)},
			[]string{"Cores with one thread:", utils.Itoa(m.CoresWithoutExtraThread)},
		)
	}
	table := plain(w)
	table.AppendBulk(rows)
	table.Render()
}

// Cores prints one row per physical core with the unit the sweep will pin.
func Cores(w io.Writer, m *topology.Model, sel topology.Selection) {
	table := plain(w)
	table.SetHeader([]string{"CORE", "THREADS", "UNIT", "ENUMERATED"})
	for _, c := range NewView(m, sel).Cores {
		table.Append([]string{utils.Itoa(c.Core), utils.Itoa(c.Threads), utils.Itoa(c.Unit), joinUnits(c.Units)})
	}
	table.Render()
}
