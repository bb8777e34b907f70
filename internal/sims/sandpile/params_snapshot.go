package sandpile

import "github.com/kachinap/sandpile-project/internal/core"

func (p *Pile) Parameters() core.ParameterSnapshot {
	return p.cfg.Parameters()
}

// Parameters lists the configuration grouped for display. The keys are the
// ones Apply accepts.
func (c Config) Parameters() core.ParameterSnapshot {
	groups := []core.ParameterGroup{
		{
			Name: "Grid",
			Params: []core.Parameter{
				core.IntParam("size", "Side length N", c.Size),
				core.IntParam("threshold", "Critical threshold K", c.Threshold),
				core.IntParam("fill", "Initial interior fill V", c.Fill),
				core.StringParam("boundary", "Boundary mode", string(c.Boundary)),
			},
		},
		{
			Name: "Placement",
			Params: []core.Parameter{
				core.StringParam("placement", "Placement strategy", c.Placement),
				core.IntParam("band_width", "Edge band width", c.BandWidth),
				core.Int64Param("seed", "Seed", c.Seed),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}
