// Package export writes finished runs out as CSV tables, zip archives and
// JSON traces, and reads traces back for replay.
package export

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
)

// Archive member names
const (
	TimeSeriesFile     = "time_series.csv"
	InfectionTimesFile = "infection_times.csv"
	FinalInfectedFile  = "final_infected.csv"
	ExposuresFile      = "exposures.csv"
)

// WriteTimeSeries writes timestep,newly_infected,total_infected rows,
// starting with the seed row at timestep 0.
func WriteTimeSeries(w io.Writer, res *simulation.Result) error {
	rows := [][]string{{"timestep", "newly_infected", "total_infected"}}
	for _, r := range res.TimeSeries() {
		rows = append(rows, []string{
			strconv.Itoa(r.Timestep),
			strconv.Itoa(r.NewlyInfected),
			strconv.Itoa(r.TotalInfected),
		})
	}
	return writeAll(w, rows)
}

// WriteInfectionTimes writes one node,infection_time row per node in
// nodes. Nodes never infected get an empty infection_time.
func WriteInfectionTimes(w io.Writer, nodes []graph.NodeID, res *simulation.Result) error {
	rows := make([][]string, 0, len(nodes)+1)
	rows = append(rows, []string{"node", "infection_time"})
	for _, id := range nodes {
		at := ""
		if t, ok := res.InfectionTime(id); ok {
			at = strconv.Itoa(t)
		}
		rows = append(rows, []string{string(id), at})
	}
	return writeAll(w, rows)
}

// WriteFinalInfected writes the final infected set, one node per row.
func WriteFinalInfected(w io.Writer, res *simulation.Result) error {
	rows := [][]string{{"final_infected"}}
	for _, id := range res.Final {
		rows = append(rows, []string{string(id)})
	}
	return writeAll(w, rows)
}

// WriteExposures writes every recorded exposure.
func WriteExposures(w io.Writer, res *simulation.Result) error {
	rows := [][]string{{"timestep", "from", "to", "probability"}}
	for _, rec := range res.Records {
		for _, ev := range rec.Exposures {
			rows = append(rows, []string{
				strconv.Itoa(rec.Timestep),
				string(ev.From),
				string(ev.To),
				strconv.FormatFloat(ev.Probability, 'g', -1, 64),
			})
		}
	}
	return writeAll(w, rows)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func hasExposures(res *simulation.Result) bool {
	for _, rec := range res.Records {
		if len(rec.Exposures) > 0 {
			return true
		}
	}
	return false
}

type member struct {
	name  string
	write func(io.Writer) error
}

// WriteZip packs the CSV tables of res, a run over g, into a zip archive.
// The exposure table is included only when exposures were recorded.
func WriteZip(w io.Writer, g *graph.Graph, res *simulation.Result) error {
	zw := zip.NewWriter(w)

	forResult := func(fn func(io.Writer, *simulation.Result) error) func(io.Writer) error {
		return func(w io.Writer) error { return fn(w, res) }
	}
	members := []member{
		{TimeSeriesFile, forResult(WriteTimeSeries)},
		{InfectionTimesFile, func(w io.Writer) error { return WriteInfectionTimes(w, g.IDs(), res) }},
		{FinalInfectedFile, forResult(WriteFinalInfected)},
	}
	if hasExposures(res) {
		members = append(members, member{ExposuresFile, forResult(WriteExposures)})
	}

	for _, m := range members {
		fw, err := zw.Create(m.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", m.name, err)
		}
		if err := m.write(fw); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return zw.Close()
}
