// Package neo defines the normalized near-Earth-object shape that every other
// component consumes, and the normalizer that produces it from raw NeoWs
// records.
//
// NeoWs does not publish a stable schema: numeric fields arrive as decimal
// strings, nested blocks go missing for poorly observed objects, and the
// close-approach list may be empty. Normalize absorbs all of that and either
// returns a complete Object or discards the record.
package neo

// Object is one upstream NEO record with a stable shape. Optional
// measurements are nil when the upstream data is incomplete, never zero.
type Object struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Diameter          *float64 `json:"diameter"`      // km, mean of min/max estimate
	MissDistance      *float64 `json:"miss_distance"` // km at closest approach
	Velocity          *float64 `json:"velocity"`      // km/s relative at closest approach
	Hazardous         bool     `json:"hazardous"`
	CloseApproachDate *string  `json:"close_approach_date"` // YYYY-MM-DD
}

// ApproachDate returns the close-approach date or "" when absent.
func (o Object) ApproachDate() string {
	if o.CloseApproachDate == nil {
		return ""
	}
	return *o.CloseApproachDate
}
