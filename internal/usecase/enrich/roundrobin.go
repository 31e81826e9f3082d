package enrich

import "isdnews/internal/domain/entity"

// NextTeam returns the team served after cursor. A cursor that is not an
// active code restarts the rotation at the first team.
func NextTeam(cursor string, active []entity.Team) (entity.Team, error) {
	if len(active) == 0 {
		return entity.Team{}, ErrNoActiveTeams
	}
	for i, t := range active {
		if t.Code == cursor {
			return active[(i+1)%len(active)], nil
		}
	}
	return active[0], nil
}

// Rotation lists every active team once, starting at NextTeam(cursor).
func Rotation(cursor string, active []entity.Team) []entity.Team {
	if len(active) == 0 {
		return nil
	}
	start := 0
	for i, t := range active {
		if t.Code == cursor {
			start = (i + 1) % len(active)
			break
		}
	}
	out := make([]entity.Team, 0, len(active))
	for i := range active {
		out = append(out, active[(start+i)%len(active)])
	}
	return out
}
