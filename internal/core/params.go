package core

import (
	"fmt"
	"io"
	"strconv"
)

// ParamType enumerates supported parameter value kinds.
type ParamType string

const (
	// ParamTypeInt denotes integer-valued parameters.
	ParamTypeInt ParamType = "int"
	// ParamTypeString denotes enumerated or free-form string parameters.
	ParamTypeString ParamType = "string"
)

// Parameter describes a single configured value of a simulation.
type Parameter struct {
	Key         string
	Label       string
	Type        ParamType
	Value       string
	Description string
}

// ParameterGroup clusters related parameters for presentation purposes.
type ParameterGroup struct {
	Name    string
	Params  []Parameter
	Summary string
}

// ParameterSnapshot captures the current set of parameters exposed by a sim.
type ParameterSnapshot struct {
	Groups []ParameterGroup
}

// IntParam builds an integer Parameter.
func IntParam(key, label string, value int) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeInt, Value: strconv.Itoa(value)}
}

// Int64Param builds an integer Parameter from an int64.
func Int64Param(key, label string, value int64) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeInt, Value: strconv.FormatInt(value, 10)}
}

// StringParam builds a string Parameter.
func StringParam(key, label, value string) Parameter {
	return Parameter{Key: key, Label: label, Type: ParamTypeString, Value: value}
}

// Map flattens the snapshot into key=value pairs. The result can be fed back
// into a config FromMap.
func (s ParameterSnapshot) Map() map[string]string {
	out := make(map[string]string)
	for _, g := range s.Groups {
		for _, p := range g.Params {
			out[p.Key] = p.Value
		}
	}
	return out
}

// Write prints the snapshot as an indented key=value listing.
func (s ParameterSnapshot) Write(w io.Writer) error {
	for _, g := range s.Groups {
		if _, err := fmt.Fprintf(w, "%s:\n", g.Name); err != nil {
			return err
		}
		for _, p := range g.Params {
			if _, err := fmt.Fprintf(w, "  %s=%s\t# %s\n", p.Key, p.Value, p.Label); err != nil {
				return err
			}
		}
	}
	return nil
}
