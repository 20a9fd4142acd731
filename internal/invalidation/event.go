// Package invalidation reacts to reference-data change events. An admin map
// import publishes one event per affected map; consuming it swaps in a fresh
// GeoStore snapshot.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

type Event struct {
	Version    int       `json:"version"`
	Op         string    `json:"op"`
	MapType    string    `json:"map_type"`
	MapID      int64     `json:"map_id,omitempty"`
	Department string    `json:"department,omitempty"`
	TS         time.Time `json:"ts"`
	Source     string    `json:"source,omitempty"`
}

var knownMapTypes = map[string]struct{}{
	"zone_humide":     {},
	"zone_inondable":  {},
	"espece_protegee": {},
	"haie":            {},
	"bassin_versant":  {},
	"zonage":          {},
	"cadastre":        {},
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "import", "update", "delete":
	default:
		return fmt.Errorf("op must be import|update|delete")
	}
	if strings.TrimSpace(e.MapType) == "" {
		return fmt.Errorf("map_type is required")
	}
	if _, ok := knownMapTypes[e.MapType]; !ok {
		return fmt.Errorf("unknown map_type %q", e.MapType)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
