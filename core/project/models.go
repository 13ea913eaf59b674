package project

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/juror/core"
)

type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	TeamUsernames []string  `json:"team"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// HasMember reports whether uname belongs to the owning team (case-insensitive).
func (p Project) HasMember(uname string) bool {
	return core.ContainsUsername(p.TeamUsernames, uname)
}

// Team is a list of usernames. It decodes from a JSON array or from a comma-separated string.
type Team []string

func (t *Team) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*t = ParseTeam(raw)
		return nil
	}
	var unames []string
	if err := json.Unmarshal(data, &unames); err != nil {
		return err
	}
	*t = ParseTeam(strings.Join(unames, ","))
	return nil
}

// ParseTeam splits raw on commas, trims every username, drops blanks
// and removes case-insensitive duplicates, keeping the first occurrence.
func ParseTeam(raw string) []string {
	team := make([]string, 0)
	for _, uname := range strings.Split(raw, ",") {
		uname = core.CleanString(uname)
		if uname == "" || core.ContainsUsername(team, uname) {
			continue
		}
		team = append(team, uname)
	}
	return team
}

// NewProject contains information needed to create a new Project.
type NewProject struct {
	Title string `json:"title" validate:"notblank,max=120"`
	Team  Team   `json:"team" validate:"min=1,max=20"`
}

func (np *NewProject) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Team = ParseTeam(strings.Join(np.Team, ","))
	return validate.Struct(np)
}
