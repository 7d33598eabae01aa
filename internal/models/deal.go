// internal/models/deal.go
package models

// DefaultStage is the stage a deal is created in.
const DefaultStage = "lead"

// DealSnapshot is the narrow view of a pipeline deal the engine reads.
// Storage rows are mapped onto it at the boundary.
type DealSnapshot struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	City               string   `json:"city" yaml:"city"`
	State              string   `json:"state" yaml:"state"`
	Address            string   `json:"address,omitempty" yaml:"address"`
	Latitude           *float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude          *float64 `json:"longitude,omitempty" yaml:"longitude"`
	Segment            string   `json:"segment" yaml:"segment"`
	RoomsMin           int      `json:"roomsMin" yaml:"roomsMin"`
	RoomsMax           int      `json:"roomsMax" yaml:"roomsMax"`
	OpeningType        string   `json:"openingType" yaml:"openingType"`
	Stage              string   `json:"stage" yaml:"stage"`
	QualificationScore float64  `json:"qualificationScore" yaml:"qualificationScore"`

	// LocationScore and RiskScore are 0-25 sub-scores supplied by market research.
	LocationScore *float64 `json:"locationScore,omitempty" yaml:"locationScore"`
	RiskScore     *float64 `json:"riskScore,omitempty" yaml:"riskScore"`
}

func (d DealSnapshot) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}
